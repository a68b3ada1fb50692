package pdfinfo

import "golang.org/x/sys/unix"

const auditArch = unix.AUDIT_ARCH_X86_64

const archSetFS = 0x1002

func archRules() []Rule {
	return []Rule{
		{Name: "arch_prctl", Nr: unix.SYS_ARCH_PRCTL, Args: []ArgCondition{{Index: 0, Value: archSetFS}}, Reason: "thread-local storage for new threads"},
	}
}
