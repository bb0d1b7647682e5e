// Rulekit is a debugging and validation tool for rule text.
//
// Usage:
//
//	# Interactive evaluation loop
//	rulekit repl
//
//	# Evaluate against data from an environment file
//	rulekit repl --environment env.yaml
//
//	# Validate rule text
//	rulekit check 'age > 21' 'name =~ "L.*"'
//
//	# Render a rule's expression tree as a DOT graph
//	rulekit graph 'publisher == "DC" and issue >= 1' > rule.dot
//
// For complete documentation, see: https://github.com/rulekit/rulekit
package main

func main() {
	Execute()
}
