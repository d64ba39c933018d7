// Package registry reads values from the Windows registry.
//
// Keys are written the way reg.exe prints them: a hive prefix (HKLM, HKCU,
// HKCR, HKU or their long forms) followed by a backslash-separated path.
package registry

import (
	"fmt"
	"strings"
)

// Hive identifies a predefined root key.
type Hive int

const (
	HiveLocalMachine Hive = iota
	HiveCurrentUser
	HiveClassesRoot
	HiveUsers
)

func (h Hive) String() string {
	switch h {
	case HiveLocalMachine:
		return "HKLM"
	case HiveCurrentUser:
		return "HKCU"
	case HiveClassesRoot:
		return "HKCR"
	case HiveUsers:
		return "HKU"
	}
	return fmt.Sprintf("Hive(%d)", int(h))
}

var hives = map[string]Hive{
	"HKLM":               HiveLocalMachine,
	"HKEY_LOCAL_MACHINE": HiveLocalMachine,
	"HKCU":               HiveCurrentUser,
	"HKEY_CURRENT_USER":  HiveCurrentUser,
	"HKCR":               HiveClassesRoot,
	"HKEY_CLASSES_ROOT":  HiveClassesRoot,
	"HKU":                HiveUsers,
	"HKEY_USERS":         HiveUsers,
}

// SplitKey separates the hive from the subkey path. PowerShell drive syntax
// ("HKLM:\...") and the Registry:: provider prefix are accepted too.
func SplitKey(key string) (Hive, string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "Registry::")
	key = strings.ReplaceAll(key, "/", `\`)
	root, path, _ := strings.Cut(key, `\`)
	root = strings.ToUpper(strings.TrimSuffix(root, ":"))
	hive, ok := hives[root]
	if !ok {
		return 0, "", fmt.Errorf("unknown registry hive in %q", key)
	}
	path = strings.Trim(path, `\`)
	if path == "" {
		return 0, "", fmt.Errorf("registry key %q has no subkey", key)
	}
	return hive, path, nil
}
