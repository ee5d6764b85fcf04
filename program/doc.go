// Package program loads instruction streams written as YAML.
//
// A program names its method, an optional subtype hierarchy, the entry
// stack (top first) and one entry per instruction:
//
//	method: Describe
//	types:
//	  - {name: string, parents: [object]}
//	entry: [string]
//	instructions:
//	  - {op: call ToString, pops: [object], pushes: [string]}
//	  - {op: ret, pops: [string], require: 1, terminal: true}
//
// Branch targets refer to labels. A slot type may list alternatives
// separated by "|", and "*" accepts any value.
package program
