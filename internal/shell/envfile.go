package shell

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ParseEnv reads KEY=VALUE lines such as the ones found in /etc/os-release,
// /etc/lsb-release or /etc/default/grub. Comments and blank lines are skipped and
// values are unquoted. A value that can not be unquoted is kept with its double
// quotes stripped.
func ParseEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if uq, err := Unquote(value); err == nil {
			value = uq
		} else {
			value = strings.ReplaceAll(value, `"`, "")
		}
		vars[key] = value
	}

	return vars, scanner.Err()
}

// ParseEnvFile is ParseEnv for a file path
func ParseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseEnv(f)
}
