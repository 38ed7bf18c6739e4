package middleware

import "time"

// requestOverhead covers the balance read and debit before generation and the
// response write after it.
const requestOverhead = 15 * time.Second

// RequestTimeout is the request deadline for a server whose generations run up to
// generationTimeout. A debited request must always be able to answer.
func RequestTimeout(generationTimeout time.Duration) time.Duration {
	return generationTimeout + requestOverhead
}

// WriteTimeout outlasts RequestTimeout so the timeout response itself can be written.
func WriteTimeout(generationTimeout time.Duration) time.Duration {
	return RequestTimeout(generationTimeout) + 5*time.Second
}
