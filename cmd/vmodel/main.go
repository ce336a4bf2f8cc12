// Command vmodel validates JSON or YAML documents against a schema document.
//
//	vmodel validate --schema plan.yaml data.json [--format json|text]
//	vmodel schema --schema plan.yaml
package main

func main() {
	Execute()
}
