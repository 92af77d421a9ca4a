package road

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

type fileSegment struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Mode      string       `json:"mode,omitempty"`
	Waypoints [][3]float64 `json:"waypoints"`
}

type roadFile struct {
	Segments []fileSegment `json:"segments"`
}

// Load reads a road file. Connections are not part of the format; run a
// Builder after loading.
func Load(r io.Reader) (*Network, error) {
	var rf roadFile
	if err := json.NewDecoder(r).Decode(&rf); err != nil {
		return nil, fmt.Errorf("decode road file: %w", err)
	}
	n := NewNetwork()
	for i, fs := range rf.Segments {
		mode, err := ParseMode(fs.Mode)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		id := fs.ID
		if id == "" {
			id = uuid.NewString()
		}
		if n.Lookup(id) != nil {
			return nil, fmt.Errorf("segment %d: duplicate id %q", i, id)
		}
		s := &Segment{
			ID:        id,
			Name:      fs.Name,
			Mode:      mode,
			Waypoints: make([]r3.Vec, 0, len(fs.Waypoints)),
		}
		for _, p := range fs.Waypoints {
			s.Waypoints = append(s.Waypoints, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		}
		n.Add(s)
	}
	return n, nil
}

func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	n, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Save writes the waypoints of every segment in n.
func (n *Network) Save(w io.Writer) error {
	rf := roadFile{Segments: make([]fileSegment, 0, n.Len())}
	for _, s := range n.Segments() {
		fs := fileSegment{
			ID:        s.ID,
			Name:      s.Name,
			Mode:      s.Mode.String(),
			Waypoints: make([][3]float64, 0, len(s.Waypoints)),
		}
		for _, p := range s.Waypoints {
			fs.Waypoints = append(fs.Waypoints, [3]float64{p.X, p.Y, p.Z})
		}
		rf.Segments = append(rf.Segments, fs)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rf)
}

func (n *Network) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := n.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}
