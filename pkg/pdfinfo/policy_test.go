package pdfinfo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/bpf"
)

const testArch = 0xc000003e

// seccompData lays out struct seccomp_data for the bpf package's VM, which
// loads words big-endian. Each argument's low 32 bits go first, matching
// the little-endian kernel layout the filter is written against.
func seccompData(nr, arch uint32, args ...uint64) []byte {
	data := make([]byte, 64)
	binary.BigEndian.PutUint32(data[offsetNr:], nr)
	binary.BigEndian.PutUint32(data[offsetArch:], arch)
	for i, arg := range args {
		binary.BigEndian.PutUint32(data[offsetArgs+8*i:], uint32(arg))
		binary.BigEndian.PutUint32(data[offsetArgs+8*i+4:], uint32(arg>>32))
	}
	return data
}

func newVM(t *testing.T, p *Policy) *bpf.VM {
	t.Helper()
	prog, err := p.Program()
	require.NoError(t, err)
	vm, err := bpf.NewVM(prog)
	require.NoError(t, err)
	return vm
}

func runVM(t *testing.T, vm *bpf.VM, data []byte) uint32 {
	t.Helper()
	ret, err := vm.Run(data)
	require.NoError(t, err)
	return uint32(ret)
}

func TestPolicyProgram(t *testing.T) {
	p := &Policy{
		Arch: testArch,
		Rules: []Rule{
			{Name: "read", Nr: 0, Args: []ArgCondition{{Index: 0, Value: 0}}},
			{Name: "write", Nr: 1, Args: []ArgCondition{{Index: 0, Value: 1}}},
			{Name: "write", Nr: 1, Args: []ArgCondition{{Index: 0, Value: 2}}},
			{Name: "mmap", Nr: 9, Args: []ArgCondition{{Index: 4, Value: 0xffffffff}}},
			{Name: "clone", Nr: 56, Args: []ArgCondition{{Index: 0, Mask: 0x10000, Value: 0x10000}}},
			{Name: "pair", Nr: 77, Args: []ArgCondition{{Index: 1, Value: 5}, {Index: 2, Value: 6}}},
			{Name: "clone3", Nr: 435, Errno: 38},
			{Name: "exit_group", Nr: 231},
		},
	}
	vm := newVM(t, p)

	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"read stdin", seccompData(0, testArch, 0), retAllow},
		{"read other fd", seccompData(0, testArch, 3), retKillProcess},
		{"write stdout", seccompData(1, testArch, 1), retAllow},
		{"write stderr", seccompData(1, testArch, 2), retAllow},
		{"write file", seccompData(1, testArch, 5), retKillProcess},
		{"anonymous mmap", seccompData(9, testArch, 0, 4096, 3, 0x22, 0xffffffffffffffff, 0), retAllow},
		{"file mmap", seccompData(9, testArch, 0, 4096, 3, 0x2, 7, 0), retKillProcess},
		{"thread clone", seccompData(56, testArch, 0x50f00), retAllow},
		{"process clone", seccompData(56, testArch, 0x11), retKillProcess},
		{"both args match", seccompData(77, testArch, 0, 5, 6), retAllow},
		{"second arg differs", seccompData(77, testArch, 0, 5, 7), retKillProcess},
		{"first arg differs", seccompData(77, testArch, 0, 4, 6), retKillProcess},
		{"errno rule", seccompData(435, testArch), retErrno | 38},
		{"exit_group", seccompData(231, testArch), retAllow},
		{"unlisted syscall", seccompData(257, testArch), retKillProcess},
		{"foreign arch", seccompData(0, 0x40000003, 0), retKillProcess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runVM(t, vm, tt.data))
		})
	}
}

func TestPolicyArgumentsUseLowWord(t *testing.T) {
	p := &Policy{
		Arch:  testArch,
		Rules: []Rule{{Name: "read", Nr: 0, Args: []ArgCondition{{Index: 0, Value: 0}}}},
	}
	vm := newVM(t, p)

	// Only the low 32 bits of an argument are compared.
	assert.Equal(t, retAllow, runVM(t, vm, seccompData(0, testArch, 1<<32)))
}

func TestPolicyErrors(t *testing.T) {
	_, err := (&Policy{}).Program()
	assert.ErrorIs(t, err, ErrSandboxUnsupported)

	_, err = (&Policy{
		Arch:  testArch,
		Rules: []Rule{{Name: "bad", Nr: 1, Args: []ArgCondition{{Index: 6}}}},
	}).Program()
	assert.Error(t, err)

	raw, err := (&Policy{Arch: testArch, Rules: []Rule{{Name: "exit", Nr: 60}}}).Assemble()
	require.NoError(t, err)
	// arch check (3) + rule (3) + default kill (1)
	assert.Len(t, raw, 7)
}

func TestPolicyString(t *testing.T) {
	p := &Policy{
		Arch: testArch,
		Rules: []Rule{
			{Name: "write", Nr: 1, Args: []ArgCondition{{Index: 0, Value: 1}}, Reason: "output stream"},
		},
	}
	assert.Contains(t, p.String(), "write")
	assert.Contains(t, p.String(), "arg0")
	assert.Contains(t, p.String(), "# output stream")
}
