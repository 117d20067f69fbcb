package main

import (
	"fmt"
	"io"

	jsonv2 "github.com/go-json-experiment/json"

	"github.com/sarchlab/rvdecode/insts"
)

// record is the JSON form of one decoded instruction.
type record struct {
	Address     string             `json:"address,omitempty"`
	Mapped      bool               `json:"mapped"`
	Instruction *insts.Instruction `json:"instruction"`
}

// printer writes decoded instructions as text or JSON lines.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, g *globalOptions) *printer {
	return &printer{w: w, json: g.json}
}

// printWord prints an instruction decoded from a literal word.
func (p *printer) printWord(inst *insts.Instruction) error {
	if p.json {
		return p.writeJSON(record{Mapped: true, Instruction: inst})
	}
	_, err := fmt.Fprintln(p.w, inst)
	return err
}

// printAt prints an instruction fetched from addr.
func (p *printer) printAt(addr uint64, mapped bool, inst *insts.Instruction) error {
	if p.json {
		return p.writeJSON(record{
			Address:     fmt.Sprintf("0x%08x", addr),
			Mapped:      mapped,
			Instruction: inst,
		})
	}
	_, err := fmt.Fprintf(p.w, "%08x: %v\n", addr, inst)
	return err
}

func (p *printer) writeJSON(r record) error {
	data, err := jsonv2.Marshal(r)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = p.w.Write(data)
	return err
}
