// Package scanner extracts security events from collected VM logs. It
// understands three log sources (auth.log, kern.log, syslog) and a fixed
// set of rule families; everything else passes through unmatched.
package scanner

import (
	"regexp"
	"strings"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
)

// Rule families, highest priority first. A line is classified by the first
// family whose pattern matches, so ordering is part of the contract.
const (
	RuleEgress     = "egress"
	RuleBruteForce = "brute_force"
	RuleSudo       = "sudo"
	RuleOOMKill    = "oom_kill"
)

type rulePatterns struct {
	rule     string
	patterns []*regexp.Regexp
}

var ruleTable = []rulePatterns{
	// Data exfiltration reported by the kernel egress module.
	{
		rule: RuleEgress,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)kernel:.*egress\s*\(\d+\)\s*pid\s+(\d+)\s+read\s+([^\s]+|\([^)]+\))\s+write\s+([^\s]*)\s+uid\s+(\d+)\s+gid\s+(\d+)`),
		},
	},
	// SSH brute force and sudoers violations.
	{
		rule: RuleBruteForce,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)sshd\[\d+\]:\s*Failed\s+password\s+for\s+(?:invalid\s+user\s+)?(\w+)\s+from\s+([\d.]+)`),
			regexp.MustCompile(`(?i)sshd\[\d+\]:\s*Invalid\s+user\s+(\w+)\s+from\s+([\d.]+)`),
			regexp.MustCompile(`(?i)sudo:.*user\s+NOT\s+in\s+sudoers.*USER=(\w+).*COMMAND=(.+)`),
		},
	},
	// Privilege escalation through sudo/su sessions.
	{
		rule: RuleSudo,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)sudo:\s*(\w+)\s*:.*TTY=.*USER=(\w+)\s+COMMAND=(.+)`),
			regexp.MustCompile(`(?i)sudo:\s*pam_unix\(sudo:session\):\s*session\s+(opened|closed)\s+for\s+user\s+(\w+)`),
			regexp.MustCompile(`(?i)su:\s*pam_unix\(su:session\):\s*session\s+opened\s+for\s+user\s+(\w+).*by\s+(\w+)`),
		},
	},
	// Kernel OOM killer activity.
	{
		rule: RuleOOMKill,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)kernel:.*Out\s+of\s+memory:\s*Kill\s+process\s+(\d+)\s*\(([^)]+)\)`),
			regexp.MustCompile(`(?i)kernel:.*oom-kill:.*killed\s+process\s+(\d+)`),
		},
	},
}

// File extensions whose exfiltration escalates an egress event to critical.
var sensitiveExtensions = []string{".csv", ".zip", ".sql", ".key", ".pem"}

// Classify matches a raw log message against every rule family in priority
// order. It returns the rule, its severity and any extracted metadata; ok is
// false when no pattern matches.
func Classify(message string) (rule, severity string, metadata map[string]string, ok bool) {
	for _, entry := range ruleTable {
		for _, pattern := range entry.patterns {
			match := pattern.FindStringSubmatch(message)
			if match == nil {
				continue
			}
			return entry.rule, severityOf(entry.rule, match, message), metadataOf(entry.rule, match), true
		}
	}
	return "", "", nil, false
}

func severityOf(rule string, match []string, message string) string {
	switch rule {
	case RuleEgress:
		if len(match) > 2 {
			readFile := strings.ToLower(match[2])
			for _, ext := range sensitiveExtensions {
				if strings.Contains(readFile, ext) {
					return models.SeverityCritical
				}
			}
		}
		return models.SeverityHigh
	case RuleBruteForce:
		return models.SeverityHigh
	case RuleSudo:
		if strings.Contains(message, "USER=root") || strings.Contains(message, "session opened for user root") {
			return models.SeverityHigh
		}
		return models.SeverityMedium
	case RuleOOMKill:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

func metadataOf(rule string, match []string) map[string]string {
	metadata := map[string]string{}

	switch rule {
	case RuleEgress:
		if len(match) >= 6 {
			metadata["pid"] = match[1]
			metadata["read_file"] = match[2]
			metadata["write_dest"] = match[3]
			metadata["uid"] = match[4]
			metadata["gid"] = match[5]
		}
	case RuleBruteForce:
		if len(match) >= 3 {
			metadata["username"] = match[1]
			metadata["source_ip"] = match[2]
		}
	case RuleSudo:
		if len(match) >= 2 {
			metadata["user"] = match[1]
		}
		if len(match) >= 4 {
			metadata["command"] = match[3]
		}
	}
	return metadata
}
