package main

import (
	"fmt"
	"os"

	"amlvm/ns"
	"amlvm/value"
	"amlvm/vm"

	"gopkg.in/yaml.v3"
)

// ReplayStep is one entry of a session-replay script: the namespace name to
// resolve (absolute, parent-relative or search-scoped) and, when it names a
// Method, the literal integer arguments to call it with.
type ReplayStep struct {
	Name string   `yaml:"name"`
	Args []uint64 `yaml:"args,omitempty"`
}

// runReplay loads steps from path and evaluates each against engine in
// order, printing the resolved value (or error) to stdout. Handy for
// regression-testing a DSDT dump without a human at the keyboard.
func runReplay(engine *vm.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var steps []ReplayStep
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return fmt.Errorf("replay script %s: %w", path, err)
	}

	for _, step := range steps {
		target := ns.Resolve(engine.Root, engine.Root, ns.ParseName(step.Name))
		if target == nil {
			fmt.Printf("%-40s NoSuchNode\n", step.Name)
			continue
		}

		if target.Type() == ns.TypeMethod {
			args := make([]*value.Variable, len(step.Args))
			for i, a := range step.Args {
				args[i] = value.NewInteger(a)
			}
			v, err := engine.Invoke(target, args)
			if err != nil {
				fmt.Printf("%-40s error: %s\n", step.Name, err)
				continue
			}
			fmt.Printf("%-40s %s\n", step.Name, formatValue(v))
			continue
		}

		v, err := engine.ReadNodeValue(target)
		if err != nil {
			fmt.Printf("%-40s error: %s\n", step.Name, err)
			continue
		}
		fmt.Printf("%-40s %s\n", step.Name, formatValue(v))
	}
	return nil
}
