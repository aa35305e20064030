package models

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Dataset errors
var (
	ErrUnknownID   = errors.New("unknown identifier")
	ErrNodesExist  = errors.New("return periods cannot change while nodes exist")
	ErrInvalidNode = errors.New("invalid node")
)

// Dataset is an editable working set of properties and nodes with stable identifiers.
// Records keep their identifier for life; removing one never renumbers the others.
// A Dataset is safe for concurrent use.
type Dataset struct {
	mu            sync.RWMutex
	properties    []Property
	nodes         []Node
	returnPeriods []int
}

// NewDataset creates an empty dataset with the given return periods.
func NewDataset(returnPeriods []int) (*Dataset, error) {
	if err := ValidateReturnPeriods(returnPeriods); err != nil {
		return nil, err
	}
	return &Dataset{returnPeriods: append([]int(nil), returnPeriods...)}, nil
}

// ReturnPeriods returns a copy of the dataset's return periods.
func (d *Dataset) ReturnPeriods() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.returnPeriods...)
}

// SetReturnPeriods replaces the return periods. It is refused once any node exists
// because every node's depth list is aligned to them.
func (d *Dataset) SetReturnPeriods(rps []int) error {
	if err := ValidateReturnPeriods(rps); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.nodes) > 0 {
		return ErrNodesExist
	}
	d.returnPeriods = append([]int(nil), rps...)
	return nil
}

// AddProperty appends a property, assigning an id when it has none.
func (d *Dataset) AddProperty(p Property) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.properties = append(d.properties, p)
	return p.ID
}

// UpdateProperty replaces the property with the given id, keeping the id.
func (d *Dataset) UpdateProperty(id uuid.UUID, p Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.propertyIndex(id)
	if i < 0 {
		return fmt.Errorf("property %s: %w", id, ErrUnknownID)
	}
	p.ID = id
	d.properties[i] = p
	return nil
}

// RemoveProperty deletes the property with the given id.
func (d *Dataset) RemoveProperty(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.propertyIndex(id)
	if i < 0 {
		return fmt.Errorf("property %s: %w", id, ErrUnknownID)
	}
	d.properties = append(d.properties[:i], d.properties[i+1:]...)
	return nil
}

// SetPropertyIncluded toggles whether a property takes part in the appraisal.
func (d *Dataset) SetPropertyIncluded(id uuid.UUID, included bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.propertyIndex(id)
	if i < 0 {
		return fmt.Errorf("property %s: %w", id, ErrUnknownID)
	}
	d.properties[i].Included = included
	return nil
}

// SetGroundLevel sets or clears (nil) a property's ground level.
func (d *Dataset) SetGroundLevel(id uuid.UUID, level *float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.propertyIndex(id)
	if i < 0 {
		return fmt.Errorf("property %s: %w", id, ErrUnknownID)
	}
	d.properties[i].GroundLevel = level
	return nil
}

// AddNode appends a node, assigning an id when it has none. The node must carry one
// depth reading per return period.
func (d *Dataset) AddNode(n Node) (uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(n.Depths) != len(d.returnPeriods) {
		return uuid.Nil, fmt.Errorf("%w: %w: %d depths for %d return periods",
			ErrInvalidNode, ErrDepthCountMismatch, len(n.Depths), len(d.returnPeriods))
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	d.nodes = append(d.nodes, n)
	return n.ID, nil
}

// UpdateNode replaces the node with the given id, keeping the id.
func (d *Dataset) UpdateNode(id uuid.UUID, n Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("node %s: %w", id, ErrUnknownID)
	}
	if len(n.Depths) != len(d.returnPeriods) {
		return fmt.Errorf("%w: %w: %d depths for %d return periods",
			ErrInvalidNode, ErrDepthCountMismatch, len(n.Depths), len(d.returnPeriods))
	}
	n.ID = id
	d.nodes[i] = n
	return nil
}

// RemoveNode deletes the node with the given id.
func (d *Dataset) RemoveNode(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("node %s: %w", id, ErrUnknownID)
	}
	d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
	return nil
}

// Properties returns a copy of the properties in insertion order.
func (d *Dataset) Properties() []Property {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Property(nil), d.properties...)
}

// Nodes returns a copy of the nodes in insertion order.
func (d *Dataset) Nodes() []Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Node(nil), d.nodes...)
}

// Inputs freezes the dataset into engine inputs under the given configuration.
// The configuration's return periods are replaced by the dataset's own.
func (d *Dataset) Inputs(cfg FloodEventConfig) Inputs {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cfg.ReturnPeriods = append([]int(nil), d.returnPeriods...)
	return Inputs{
		Properties: append([]Property(nil), d.properties...),
		Nodes:      append([]Node(nil), d.nodes...),
		Config:     cfg,
	}
}

func (d *Dataset) propertyIndex(id uuid.UUID) int {
	for i := range d.properties {
		if d.properties[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Dataset) nodeIndex(id uuid.UUID) int {
	for i := range d.nodes {
		if d.nodes[i].ID == id {
			return i
		}
	}
	return -1
}
