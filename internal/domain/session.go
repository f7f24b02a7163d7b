package domain

// Session is the proof of a successful authentication, passed explicitly to
// every operation that needs identity. The Voted flag is a snapshot taken at
// login; the vote path re-reads the authoritative flag inside its transaction
// and only updates this copy after a commit.
type Session struct {
	VoterID  string
	FullName string
	Email    string
	Voted    bool
}
