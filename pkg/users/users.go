// Package users reads the local accounts and sizes the homes that a backup ISO
// carries
package users

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alessio/shellescape"
	"github.com/gammazero/workerpool"
	"github.com/k0sproject/rig/exec"
	log "github.com/sirupsen/logrus"
)

// PasswdPath is the local account database
const PasswdPath = "/etc/passwd"

// concurrentSizing is the number of du processes run at once
const concurrentSizing = 4

var (
	saveableRoots = map[string]bool{"home": true, "opt": true, "srv": true, "usr": true, "var": true}
	skippedSecond = map[string]bool{"cache": true, "run": true, "spool": true}
	skippedHomes  = map[string]bool{
		"/usr/bin":         true,
		"/usr/sbin":        true,
		"/var/backups":     true,
		"/var/lib/colord":  true,
		"/var/lib/geoclue": true,
		"/var/lib/misc":    true,
		"/var/mail":        true,
	}
)

// User is an /etc/passwd entry
type User struct {
	Login string
	UID   int
	GID   int
	Gecos string
	Home  string
	Shell string
	Size  int64
}

// Runner runs a command and returns its output
type Runner interface {
	ExecOutput(cmd string, opts ...exec.Option) (string, error)
}

// Parse reads passwd formatted entries
func Parse(r io.Reader) ([]User, error) {
	var users []User
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != 7 {
			return nil, fmt.Errorf("invalid passwd entry %q", line)
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid uid in %q: %w", line, err)
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid gid in %q: %w", line, err)
		}
		users = append(users, User{
			Login: fields[0],
			UID:   uid,
			GID:   gid,
			Gecos: fields[4],
			Home:  fields[5],
			Shell: fields[6],
		})
	}
	return users, scanner.Err()
}

// Load reads the passwd file at path
func Load(path string) ([]User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// IsSaveable returns true when the home belongs in a backup. exists reports if a
// path is present on the system.
func IsSaveable(home string, exists func(string) bool) bool {
	if home == "/" || skippedHomes[home] {
		return false
	}
	parts := strings.Split(strings.Trim(home, "/"), "/")
	if !saveableRoots[parts[0]] {
		return false
	}
	if len(parts) > 1 && skippedSecond[parts[1]] {
		return false
	}
	return exists(home)
}

// Saveable filters the users whose home belongs in a backup
func Saveable(users []User, exists func(string) bool) []User {
	var out []User
	for _, u := range users {
		if IsSaveable(u.Home, exists) {
			out = append(out, u)
		}
	}
	return out
}

// PathExists is the default exists function for Saveable
func PathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Primary returns the user named by login, or the first user with uid 1000 when
// login is empty
func Primary(users []User, login string) (User, bool) {
	for _, u := range users {
		if login != "" && u.Login == login {
			return u, true
		}
		if login == "" && u.UID == 1000 {
			return u, true
		}
	}
	return User{}, false
}

// Size runs du on every home concurrently and stores the result in the users.
// The total is returned.
func Size(r Runner, users []User) (int64, error) {
	var (
		mu    sync.Mutex
		total int64
		errs  []error
	)

	wp := workerpool.New(concurrentSizing)
	for i := range users {
		u := &users[i]
		wp.Submit(func() {
			size, err := du(r, u.Home)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warnf("%s: %s", u.Home, err.Error())
				errs = append(errs, err)
				return
			}
			u.Size = size
			total += size
		})
	}
	wp.StopWait()

	if len(errs) > 0 {
		return total, fmt.Errorf("sizing %d home(s) failed: %w", len(errs), errs[0])
	}
	return total, nil
}

func du(r Runner, path string) (int64, error) {
	out, err := r.ExecOutput("du --block-size=1 --summarize " + shellescape.Quote(path))
	if err != nil {
		return 0, fmt.Errorf("du failed: %w", err)
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("unexpected du output %q", out)
	}
	return strconv.ParseInt(fields[0], 10, 64)
}
