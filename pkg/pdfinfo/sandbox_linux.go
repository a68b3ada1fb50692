//go:build linux && (amd64 || arm64)

package pdfinfo

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexCmdMask    = 0x7f
	futexWait       = 0
	futexWake       = 1
	futexWaitBitset = 9
	futexWakeBitset = 10
)

var (
	onStdin  = []ArgCondition{{Index: 0, Value: 0}}
	onStdout = []ArgCondition{{Index: 0, Value: 1}}
	onStderr = []ArgCondition{{Index: 0, Value: 2}}
)

// DefaultPolicy is the allow-list for parsing a PDF from stdin and writing
// the result to stdout. It covers the Go runtime's own needs (memory, threads,
// signals, scheduling) and nothing that reaches the filesystem or network.
func DefaultPolicy() *Policy {
	rules := []Rule{
		{Name: "read", Nr: unix.SYS_READ, Args: onStdin, Reason: "input stream"},
		{Name: "lseek", Nr: unix.SYS_LSEEK, Args: onStdin, Reason: "input stream"},
		{Name: "fstat", Nr: unix.SYS_FSTAT, Args: onStdin, Reason: "input stream"},
		{Name: "newfstatat", Nr: unix.SYS_NEWFSTATAT, Args: onStdin, Reason: "fstat via AT_EMPTY_PATH"},
		{Name: "write", Nr: unix.SYS_WRITE, Args: onStdout, Reason: "output stream"},
		{Name: "write", Nr: unix.SYS_WRITE, Args: onStderr, Reason: "error stream"},

		{Name: "brk", Nr: unix.SYS_BRK},
		{Name: "mmap", Nr: unix.SYS_MMAP, Args: []ArgCondition{{Index: 4, Value: 0xffffffff}}, Reason: "anonymous mappings only"},
		{Name: "munmap", Nr: unix.SYS_MUNMAP},
		{Name: "madvise", Nr: unix.SYS_MADVISE, Reason: "garbage collector"},
		{Name: "mprotect", Nr: unix.SYS_MPROTECT, Reason: "thread stack guard pages"},

		{Name: "futex", Nr: unix.SYS_FUTEX, Args: []ArgCondition{{Index: 1, Mask: futexCmdMask, Value: futexWait}}},
		{Name: "futex", Nr: unix.SYS_FUTEX, Args: []ArgCondition{{Index: 1, Mask: futexCmdMask, Value: futexWake}}},
		{Name: "futex", Nr: unix.SYS_FUTEX, Args: []ArgCondition{{Index: 1, Mask: futexCmdMask, Value: futexWaitBitset}}, Reason: "libc locks"},
		{Name: "futex", Nr: unix.SYS_FUTEX, Args: []ArgCondition{{Index: 1, Mask: futexCmdMask, Value: futexWakeBitset}}, Reason: "libc locks"},

		{Name: "clone", Nr: unix.SYS_CLONE, Args: []ArgCondition{{Index: 0, Mask: unix.CLONE_THREAD, Value: unix.CLONE_THREAD}}, Reason: "threads, never processes"},
		{Name: "clone3", Nr: unix.SYS_CLONE3, Errno: uint16(unix.ENOSYS), Reason: "libc falls back to clone"},
		{Name: "rseq", Nr: unix.SYS_RSEQ, Reason: "glibc aborts new threads when registration fails"},
		{Name: "set_robust_list", Nr: unix.SYS_SET_ROBUST_LIST, Reason: "libc thread start"},
		{Name: "gettid", Nr: unix.SYS_GETTID},
		{Name: "getpid", Nr: unix.SYS_GETPID},
		{Name: "tgkill", Nr: unix.SYS_TGKILL, Reason: "goroutine preemption"},
		{Name: "sched_yield", Nr: unix.SYS_SCHED_YIELD},
		{Name: "nanosleep", Nr: unix.SYS_NANOSLEEP},
		{Name: "clock_gettime", Nr: unix.SYS_CLOCK_GETTIME, Reason: "vDSO fallback"},
		{Name: "getrandom", Nr: unix.SYS_GETRANDOM, Reason: "vDSO fallback"},

		{Name: "epoll_create1", Nr: unix.SYS_EPOLL_CREATE1, Reason: "runtime netpoller"},
		{Name: "epoll_ctl", Nr: unix.SYS_EPOLL_CTL, Reason: "runtime netpoller"},
		{Name: "epoll_pwait", Nr: unix.SYS_EPOLL_PWAIT, Reason: "runtime netpoller"},
		{Name: "eventfd2", Nr: unix.SYS_EVENTFD2, Reason: "runtime netpoller"},

		{Name: "rt_sigaction", Nr: unix.SYS_RT_SIGACTION},
		{Name: "rt_sigprocmask", Nr: unix.SYS_RT_SIGPROCMASK},
		{Name: "rt_sigreturn", Nr: unix.SYS_RT_SIGRETURN},
		{Name: "sigaltstack", Nr: unix.SYS_SIGALTSTACK},

		{Name: "exit", Nr: unix.SYS_EXIT, Reason: "thread exit"},
		{Name: "exit_group", Nr: unix.SYS_EXIT_GROUP},
	}

	return &Policy{
		Arch:  auditArch,
		Rules: append(rules, archRules()...),
	}
}

// Install loads the policy into the kernel for every thread of the process.
// It cannot be undone, and child processes inherit it.
func (p *Policy) Install() error {
	raw, err := p.Assemble()
	if err != nil {
		return fmt.Errorf("failed to assemble seccomp filter: %w", err)
	}

	filter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		filter[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	prog := unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("failed to set no_new_privs: %w", err)
	}

	tid, _, errno := unix.Syscall(
		unix.SYS_SECCOMP,
		unix.SECCOMP_SET_MODE_FILTER,
		unix.SECCOMP_FILTER_FLAG_TSYNC,
		uintptr(unsafe.Pointer(&prog)),
	)
	runtime.KeepAlive(filter)
	if errno != 0 {
		return fmt.Errorf("failed to install seccomp filter: %w", errno)
	}
	if tid != 0 {
		return fmt.Errorf("failed to install seccomp filter: thread %d could not be synchronized", tid)
	}
	return nil
}
