package pdfinfo

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/bpf"
)

// seccomp return actions and struct seccomp_data offsets.
const (
	retKillProcess uint32 = 0x80000000
	retErrno       uint32 = 0x00050000
	retAllow       uint32 = 0x7fff0000

	offsetNr   = 0
	offsetArch = 4
	offsetArgs = 16

	maxArgs = 6
)

// ErrSandboxUnsupported is returned when the sandbox is requested on a
// platform without a policy.
var ErrSandboxUnsupported = errors.New("sandbox not supported on this platform")

// ArgCondition matches a syscall argument: the low 32 bits of the argument,
// masked with Mask, must equal Value. A zero Mask compares all 32 bits.
type ArgCondition struct {
	Index int
	Mask  uint32
	Value uint32
}

// Rule permits one syscall, optionally restricted by argument values.
// A rule with a non-zero Errno makes the syscall fail with that error number
// instead of running it.
type Rule struct {
	Name   string
	Nr     uint32
	Args   []ArgCondition
	Errno  uint16
	Reason string
}

// Policy is an allow-list of syscalls for a single architecture. Anything
// not matched by a rule kills the whole process, as does a syscall made
// through a different architecture's calling convention.
type Policy struct {
	Arch  uint32 // AUDIT_ARCH_* value
	Rules []Rule
}

// Program compiles the policy to classic BPF.
func (p *Policy) Program() ([]bpf.Instruction, error) {
	if p.Arch == 0 {
		return nil, ErrSandboxUnsupported
	}

	prog := []bpf.Instruction{
		bpf.LoadAbsolute{Off: offsetArch, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: p.Arch, SkipTrue: 1},
		bpf.RetConstant{Val: retKillProcess},
	}

	for _, rule := range p.Rules {
		block, err := rule.program()
		if err != nil {
			return nil, err
		}
		prog = append(prog, block...)
	}

	return append(prog, bpf.RetConstant{Val: retKillProcess}), nil
}

// program emits one self-contained block. Every failed comparison jumps to
// the first instruction after the block.
func (r Rule) program() ([]bpf.Instruction, error) {
	if len(r.Args) > 80 {
		return nil, fmt.Errorf("rule %s: too many argument conditions", r.Name)
	}

	action := retAllow
	if r.Errno != 0 {
		action = retErrno | uint32(r.Errno)
	}

	n := len(r.Args)
	block := []bpf.Instruction{
		bpf.LoadAbsolute{Off: offsetNr, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: r.Nr, SkipFalse: uint8(3*n + 1)},
	}

	for i, arg := range r.Args {
		if arg.Index < 0 || arg.Index >= maxArgs {
			return nil, fmt.Errorf("rule %s: argument index %d out of range", r.Name, arg.Index)
		}
		mask := arg.Mask
		if mask == 0 {
			mask = 0xffffffff
		}
		block = append(block,
			bpf.LoadAbsolute{Off: uint32(offsetArgs + 8*arg.Index), Size: 4},
			bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: mask},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: arg.Value & mask, SkipFalse: uint8(3*(n-1-i) + 1)},
		)
	}

	return append(block, bpf.RetConstant{Val: action}), nil
}

// Assemble compiles the policy to raw BPF ready for the kernel.
func (p *Policy) Assemble() ([]bpf.RawInstruction, error) {
	prog, err := p.Program()
	if err != nil {
		return nil, err
	}
	return bpf.Assemble(prog)
}

// String lists the rules, one per line.
func (p *Policy) String() string {
	var b strings.Builder
	for _, rule := range p.Rules {
		fmt.Fprintf(&b, "%-16s nr=%-4d", rule.Name, rule.Nr)
		for _, arg := range rule.Args {
			fmt.Fprintf(&b, " arg%d&%#x==%#x", arg.Index, arg.Mask, arg.Value)
		}
		if rule.Errno != 0 {
			fmt.Fprintf(&b, " errno=%d", rule.Errno)
		}
		if rule.Reason != "" {
			fmt.Fprintf(&b, "  # %s", rule.Reason)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
