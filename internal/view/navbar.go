package view

import (
	"context"
	"fmt"
	"io"
	"sync"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/sanitize"
)

// Navbar follows the session and shows who is logged in together with the
// links available to them. It re-renders through OnChange whenever the
// identity changes.
type Navbar struct {
	session Session

	mu          sync.Mutex
	identity    entity.Identity
	unsubscribe func()
	onChange    func()
}

func NewNavbar(session Session) *Navbar {
	return &Navbar{session: session}
}

// OnChange sets the function called after the identity changed.
func (n *Navbar) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *Navbar) Mount(_ context.Context, _ Params) error {
	n.mu.Lock()
	if n.unsubscribe != nil {
		n.mu.Unlock()
		return nil
	}
	n.identity = n.session.Current()
	n.mu.Unlock()

	unsubscribe := n.session.Subscribe(func(id entity.Identity) {
		n.mu.Lock()
		n.identity = id
		fn := n.onChange
		n.mu.Unlock()
		if fn != nil {
			fn()
		}
	})

	n.mu.Lock()
	n.unsubscribe = unsubscribe
	n.mu.Unlock()
	return nil
}

func (n *Navbar) Unmount() {
	n.mu.Lock()
	unsubscribe := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (n *Navbar) Identity() entity.Identity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.identity
}

func (n *Navbar) Render(w io.Writer) error {
	id := n.Identity()
	if id.Anonymous() {
		_, err := fmt.Fprintln(w, "[poemhub]  / | /search | /login | /register")
		return err
	}

	name := sanitize.Line(id.Username)
	if name == "" {
		name = "signed in"
	}
	_, err := fmt.Fprintf(w, "[poemhub]  / | /search | /poems/liked | /dashboard | logout    %s (%s)\n", name, id.Role)
	return err
}
