// Package roster loads the member roster from YAML.
//
//	members:
//	  - first_name: Anne
//	    last_name: Lambert
//	    email: anne@example.org
//	challengers:
//	  - first_name: Luc
//	    last_name: Piret
//
// Everyone under members is a club member and everyone under challengers a
// challenger. A person listed in both keeps both flags.
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/racerank/internal/domain/model"
)

// ErrInvalidRoster wraps decode and validation failures.
var ErrInvalidRoster = errors.New("invalid roster")

type file struct {
	Members     []model.Member `yaml:"members"`
	Challengers []model.Member `yaml:"challengers"`
}

// LoadFile reads a roster file.
func LoadFile(path string) ([]model.Member, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a roster. An empty document is an empty roster.
func Load(r io.Reader) ([]model.Member, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	var (
		out   []model.Member
		index = make(map[string]int)
	)
	add := func(m model.Member, member, challenger bool) error {
		m, err := model.NewMember(m.FirstName, m.LastName, m.Email, m.IsMember || member, m.IsChallenger || challenger)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRoster, err)
		}
		if i, ok := index[m.Key()]; ok {
			out[i].IsMember = out[i].IsMember || m.IsMember
			out[i].IsChallenger = out[i].IsChallenger || m.IsChallenger
			if out[i].Email == "" {
				out[i].Email = m.Email
			}
			return nil
		}
		index[m.Key()] = len(out)
		out = append(out, m)
		return nil
	}
	for _, m := range doc.Members {
		if err := add(m, true, false); err != nil {
			return nil, err
		}
	}
	for _, m := range doc.Challengers {
		if err := add(m, false, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}
