package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	passwdFile = "/etc/passwd"
	shadowFile = "/etc/shadow"
)

// ErrNoPassword is returned when the account has no usable password hash.
var ErrNoPassword = errors.New("user has no password")

// Account is the passwd entry of the invoking user.
type Account struct {
	Name string
	UID  int
	GID  int
	Hash string
}

// LookupHash returns the password hash of uid, following the shadow file
// when the passwd entry defers to it.
func LookupHash(uid int) (Account, error) {
	return lookupHash(passwdFile, shadowFile, uid)
}

func lookupHash(passwdPath, shadowPath string, uid int) (Account, error) {
	acct, err := lookupPasswd(passwdPath, uid)
	if err != nil {
		return Account{}, err
	}
	if acct.Hash == "x" {
		hash, err := lookupShadow(shadowPath, acct.Name)
		if err != nil {
			return Account{}, err
		}
		acct.Hash = hash
	}
	if usable(acct.Hash) {
		return acct, nil
	}
	return Account{}, fmt.Errorf("%s: %w", acct.Name, ErrNoPassword)
}

func usable(hash string) bool {
	return hash != "" && hash != "*" && !strings.HasPrefix(hash, "!")
}

// LookupAccount returns the passwd entry of uid without its hash.
func LookupAccount(uid int) (Account, error) {
	acct, err := lookupPasswd(passwdFile, uid)
	acct.Hash = ""
	return acct, err
}

func lookupPasswd(path string, uid int) (Account, error) {
	var found *Account
	err := scanColon(path, func(fields []string) bool {
		if len(fields) < 4 {
			return false
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil || id != uid {
			return false
		}
		gid, _ := strconv.Atoi(fields[3])
		found = &Account{Name: fields[0], UID: id, GID: gid, Hash: fields[1]}
		return true
	})
	if err != nil {
		return Account{}, err
	}
	if found == nil {
		return Account{}, fmt.Errorf("getpwuid %d: no such user", uid)
	}
	return *found, nil
}

func lookupShadow(path, name string) (string, error) {
	var hash string
	ok := false
	err := scanColon(path, func(fields []string) bool {
		if len(fields) < 2 || fields[0] != name {
			return false
		}
		hash, ok = fields[1], true
		return true
	})
	if err != nil {
		return "", fmt.Errorf("getspnam %s: %w", name, err)
	}
	if !ok {
		return "", fmt.Errorf("getspnam %s: no shadow entry", name)
	}
	return hash, nil
}

// scanColon calls match for every colon separated record until it returns
// true.
func scanColon(path string, match func(fields []string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if match(strings.Split(line, ":")) {
			return nil
		}
	}
	return sc.Err()
}
