// internal/scanner/analyzer.go
package scanner

import "fmt"

// Analysis thresholds. Exceeding them promotes raw event counts into named
// threats.
const (
	bruteForceIPThreshold  = 5
	sudoPerUserThreshold   = 10
	bruteForceIPSpreadHint = 3
)

// Analysis summarizes one batch of classified events for the dashboard's
// security page.
type Analysis struct {
	TotalEvents     int            `json:"totalEvents"`
	BySeverity      map[string]int `json:"bySeverity"`
	ByRule          map[string]int `json:"byRule"`
	Threats         []string       `json:"threats"`
	Recommendations []string       `json:"recommendations"`
}

// Analyze inspects events for attack patterns: repeated failed logins from
// one IP, excessive sudo usage by one user, and any exfiltration at all.
func Analyze(events []*Event) Analysis {
	analysis := Analysis{
		TotalEvents:     len(events),
		BySeverity:      map[string]int{},
		ByRule:          map[string]int{},
		Threats:         []string{},
		Recommendations: []string{},
	}

	ipFailures := map[string]int{}
	sudoAttempts := map[string]int{}
	egressFiles := map[string]struct{}{}

	for _, event := range events {
		analysis.BySeverity[event.Severity]++
		analysis.ByRule[event.Rule]++

		switch event.Rule {
		case RuleBruteForce:
			if ip := event.Metadata["source_ip"]; ip != "" {
				ipFailures[ip]++
			}
		case RuleSudo:
			if user := event.Metadata["user"]; user != "" {
				sudoAttempts[user]++
			}
		case RuleEgress:
			if file := event.Metadata["read_file"]; file != "" && file != "(null)" {
				egressFiles[file] = struct{}{}
			}
		}
	}

	for ip, count := range ipFailures {
		if count > bruteForceIPThreshold {
			analysis.Threats = append(analysis.Threats,
				fmt.Sprintf("brute force attack from %s: %d failed attempts", ip, count))
		}
	}
	for user, count := range sudoAttempts {
		if count > sudoPerUserThreshold {
			analysis.Threats = append(analysis.Threats,
				fmt.Sprintf("excessive sudo usage by %s: %d attempts", user, count))
		}
	}
	if len(egressFiles) > 0 {
		analysis.Threats = append(analysis.Threats,
			fmt.Sprintf("data exfiltration detected: %d unique files accessed", len(egressFiles)))
	}

	if analysis.BySeverity["critical"] > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"immediate investigation required for critical events")
	}
	if len(ipFailures) > bruteForceIPSpreadHint {
		analysis.Recommendations = append(analysis.Recommendations,
			"consider implementing IP-based rate limiting")
	}
	if len(egressFiles) > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"review file access permissions")
	}

	return analysis
}
