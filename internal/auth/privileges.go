package auth

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DropPrivileges gives up a setuid-root effective identity once the shadow
// file has been read. It is a no-op unless euid is 0 and the real uid is not.
func DropPrivileges() error {
	if os.Geteuid() != 0 || os.Getuid() == 0 {
		return nil
	}
	acct, err := LookupAccount(os.Getuid())
	if err != nil {
		return err
	}
	if err := unix.Setgroups([]int{acct.GID}); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setgid(acct.GID); err != nil {
		return fmt.Errorf("setgid %d: %w", acct.GID, err)
	}
	if err := unix.Setuid(acct.UID); err != nil {
		return fmt.Errorf("setuid %d: %w", acct.UID, err)
	}
	if os.Geteuid() == 0 {
		return fmt.Errorf("failed to drop privileges")
	}
	return nil
}

// DisableCoreDumps marks the process non-dumpable so the secret never lands
// in a core file or is readable through ptrace by the same user.
func DisableCoreDumps() error {
	if err := unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl PR_SET_DUMPABLE: %w", err)
	}
	return nil
}
