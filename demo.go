package gridcalc

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed demos.yaml
var demosYAML []byte

// Demo is a small example grid for one function.
type Demo struct {
	Function    string     `yaml:"function"`
	Description string     `yaml:"description"`
	Focus       string     `yaml:"focus"` // address of the demonstrated formula
	Rows        [][]string `yaml:"rows"`  // cell input text
}

// Grid builds a fresh grid from the demo's input text.
func (d Demo) Grid() *Grid {
	return GridFromInput(d.Rows)
}

// FocusRef returns the parsed focus address.
func (d Demo) FocusRef() (CellRef, error) {
	return ParseCellRef(d.Focus)
}

var (
	demos     []Demo
	demosErr  error
	demosOnce sync.Once
)

func loadDemos() ([]Demo, error) {
	demosOnce.Do(func() {
		var doc struct {
			Demos []Demo `yaml:"demos"`
		}
		if err := yaml.Unmarshal(demosYAML, &doc); err != nil {
			demosErr = fmt.Errorf("parse demo catalog: %w", err)
			return
		}
		demos = doc.Demos
	})
	return demos, demosErr
}

// Demos returns every demo in catalog order.
func Demos() []Demo {
	list, err := loadDemos()
	if err != nil {
		panic(err)
	}
	return append([]Demo(nil), list...)
}

// LookupDemo finds the demo for a function name, ignoring case.
func LookupDemo(name string) (Demo, error) {
	for _, d := range Demos() {
		if strings.EqualFold(d.Function, strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return Demo{}, fmt.Errorf("%w %q", ErrUnknownDemo, name)
}
