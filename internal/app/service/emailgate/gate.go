package emailgate

import (
	"strings"

	cfgpkg "github.com/macroflow/trialgate/pkg/config"
)

// Gate classifies email addresses against static allow/block lists.
// It holds normalized copies of the configured lists and performs no I/O.
type Gate struct {
	allowEmails  map[string]struct{}
	allowDomains map[string]struct{}
	blockDomains map[string]struct{}
}

type Result struct {
	Allowed bool
	Reason  string
}

func New(cfg *cfgpkg.Config) *Gate {
	return NewWithLists(cfg.EmailGate.AllowEmails, cfg.EmailGate.AllowDomains, cfg.EmailGate.BlockDomains)
}

func NewWithLists(allowEmails, allowDomains, blockDomains []string) *Gate {
	g := &Gate{
		allowEmails:  make(map[string]struct{}, len(allowEmails)),
		allowDomains: make(map[string]struct{}, len(allowDomains)),
		blockDomains: make(map[string]struct{}, len(blockDomains)),
	}
	for _, e := range allowEmails {
		g.allowEmails[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	for _, d := range allowDomains {
		g.allowDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	for _, d := range blockDomains {
		g.blockDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return g
}

// Classify applies the gate rules in order; the first match wins:
// exact allow-list entry, malformed address, blocked domain, then the
// allow-domain list when one is configured.
func (g *Gate) Classify(email string) Result {
	addr := strings.ToLower(strings.TrimSpace(email))

	if _, ok := g.allowEmails[addr]; ok {
		return Result{Allowed: true, Reason: "allow-listed"}
	}

	local, domain, ok := splitAddress(addr)
	if !ok || local == "" || domain == "" {
		return Result{Allowed: false, Reason: "invalid email"}
	}

	if _, blocked := g.blockDomains[domain]; blocked {
		return Result{Allowed: false, Reason: "disposable email domain"}
	}

	if len(g.allowDomains) > 0 {
		if _, ok := g.allowDomains[domain]; !ok {
			return Result{Allowed: false, Reason: "domain not authorized"}
		}
	}

	return Result{Allowed: true, Reason: "ok"}
}

func splitAddress(addr string) (local, domain string, ok bool) {
	i := strings.LastIndex(addr, "@")
	if i <= 0 || i == len(addr)-1 {
		return "", "", false
	}
	local, domain = addr[:i], addr[i+1:]
	// the domain must at least look like host.tld
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", "", false
	}
	return local, domain, true
}
