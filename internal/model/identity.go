package model

// Identity is the opaque user key handed over by the tracker. The empty
// identity is anonymous.
type Identity string

const Anonymous Identity = ""

func (i Identity) IsAnonymous() bool {
	return i == Anonymous
}

func (i Identity) String() string {
	return string(i)
}
