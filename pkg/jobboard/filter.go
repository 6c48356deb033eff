package jobboard

import "strings"

// FilterJobs keeps the jobs whose title, description or any skill contains
// query, ignoring case. The query is matched as typed, surrounding spaces
// included; only an empty query keeps everything.
func FilterJobs(jobs []Job, query string) []Job {
	q := strings.ToLower(query)
	if q == "" {
		return jobs
	}

	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if matches(j, q) {
			out = append(out, j)
		}
	}
	return out
}

func matches(j Job, q string) bool {
	if strings.Contains(strings.ToLower(j.Title), q) || strings.Contains(strings.ToLower(j.Description), q) {
		return true
	}
	for _, s := range j.Skills {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
