// Package seeds loads the niche-to-seed-accounts mapping that bootstraps
// a funnel run.
package seeds

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Account is one seed account. The seeds file accepts either a bare
// username string or an object with a username field, so hand-curated
// lists stay easy to edit.
type Account struct {
	Username string `json:"username"`
	Note     string `json:"note,omitempty"`
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var username string
	if err := json.Unmarshal(data, &username); err == nil {
		a.Username = username
		return nil
	}

	type plain Account
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Account(p)
	return nil
}

// List maps niche names to their seed accounts.
type List map[string][]Account

// Load reads a seeds file. The file is a JSON object keyed by niche.
func Load(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds file: %w", err)
	}

	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse seeds file %s: %w", path, err)
	}
	return list, nil
}

// Niches returns the available niche names, sorted.
func (l List) Niches() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Niche returns up to limit usernames for a niche. A limit <= 0 means
// all of them. Unknown niches are an error, not an empty run.
func (l List) Niche(name string, limit int) ([]string, error) {
	accounts, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("unknown niche %q (available: %v)", name, l.Niches())
	}

	if limit > 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}

	usernames := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Username != "" {
			usernames = append(usernames, a.Username)
		}
	}
	return usernames, nil
}
