// Command amlshell is an interactive terminal debugger for the AML
// interpreter: it loads one or more raw ACPI table files from disk in
// place of a real firmware's Scan callback, populates the namespace, and
// lets the operator browse the tree, inspect a node's raw Variable, and
// invoke a method with literal integer arguments while watching the four
// VM stacks unwind.
//
// Grounded on gopher-os-gopher-os/tools/redirects.go for the plain
// flag-parsed main()/exit() shape, and on hejops-gone/cpu/debugger.go for
// driving bubbletea/lipgloss/go-spew as an interactive inspector.
package main

import (
	"flag"
	"fmt"
	"os"

	"amlvm/internal/hostsim"
	"amlvm/vm"

	tea "github.com/charmbracelet/bubbletea"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[amlshell] error: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	replay := flag.String("replay", "", "run a YAML session-replay script instead of the interactive shell")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		exit(fmt.Errorf("usage: amlshell [-replay script.yaml] table.aml [table2.aml ...]"))
	}

	h := hostsim.New()
	raws := make([]hostsim.RawTable, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			exit(err)
		}
		sig := "----"
		if len(data) >= 4 {
			sig = string(data[0:4])
		}
		raws[i] = hostsim.RawTable{Signature: sig, Raw: data}
	}
	if err := h.LoadTables(raws); err != nil {
		exit(err)
	}

	root := vm.Bootstrap()
	engine := vm.NewEngine(h, root)
	if err := engine.LoadAndPopulate(); err != nil {
		exit(err)
	}

	if *replay != "" {
		if err := runReplay(engine, *replay); err != nil {
			exit(err)
		}
		return
	}

	if _, err := tea.NewProgram(newModel(engine)).Run(); err != nil {
		exit(err)
	}
}
