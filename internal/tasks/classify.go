package tasks

// Buckets groups the still-active jobs of one question by task kind.
// Both lists are always present; empty lists are valid.
type Buckets struct {
	Answerers []Job `json:"answerers"`
	Updaters  []Job `json:"updaters"`
}

// JobsForQuestion computes "what is still running for this question" from a
// snapshot of the job roster. Terminal jobs are excluded, then jobs are kept
// only when their first argument equals questionHash (jobs with no
// arguments cannot be correlated and are dropped), then partitioned by task
// name. Unrecognized task names are dropped. Input order is preserved.
func JobsForQuestion(jobs []Job, questionHash string) Buckets {
	buckets := Buckets{
		Answerers: make([]Job, 0),
		Updaters:  make([]Job, 0),
	}

	for _, job := range jobs {
		if job.State.IsTerminal() {
			continue
		}
		if job.QuestionHash() == "" || job.QuestionHash() != questionHash {
			continue
		}

		switch job.Name {
		case KindAnswerQuestion:
			buckets.Answerers = append(buckets.Answerers, job)
		case KindUpdateKG:
			buckets.Updaters = append(buckets.Updaters, job)
		}
	}

	return buckets
}
