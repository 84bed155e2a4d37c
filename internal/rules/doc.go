// Package rules loads fast routing rules from YAML.
//
// Example file:
//
//	rules:
//	  - condition: "intent == '问候'"
//	    decision: 直接回答
//	    reason: greeting needs no data
//	  - condition: "has(context.device)"
//	    decision: 工具调用
//	    reason: device control
//	    tools: [device_control]
package rules
