//go:build windows

package automation

// DefaultActions returns the Windows action table
func DefaultActions() map[string]Command {
	return map[string]Command{
		"ping":     {Name: "cmd", Args: []string{"/c", "start", "/wait", "cmd", "/c", "ping", "-t", "8.8.8.8"}},
		"chrome":   {Name: `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`},
		"lock":     {Name: "rundll32.exe", Args: []string{"user32.dll,LockWorkStation"}},
		"shutdown": {Name: "shutdown", Args: []string{"/s", "/t", "0"}},
		"getmac":   {Name: "getmac"},
		"arp":      {Name: "arp", Args: []string{"-a"}},
	}
}
