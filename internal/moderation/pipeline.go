// Package moderation implements the entry lifecycle: submissions wait in the
// pending collection until an editor approves (publishes) or rejects them, and
// published entries can be edited or deleted.
//
// Each step mutates at most one collection per turn. Approve therefore takes
// two turns (pending, then cars); a failed publish is compensated by putting
// the submission back, and Repair removes asset directories left behind by
// anything that still slipped through.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/assets"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

// Allowlists supplies the brands and categories entries are validated against.
type Allowlists interface {
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Draft is a new entry. Uploaded holds references to files already staged
// under ID; External holds caller-supplied URLs.
type Draft struct {
	ID       string
	Fields   validation.EntryInput
	Uploaded []string
	External []string
}

// Patch changes a published entry. Nil fields keep the stored value; a
// pointer to "" clears an optional field. Kept nil keeps every current image.
type Patch struct {
	Brand            *string
	Model            *string
	Year             *string
	PowerPS          *string
	TopSpeed         *string
	Acceleration     *string
	Consumption      *string
	BodyTypes        []string
	CustomAttributes map[string]any
	Kept             []string
	Uploaded         []string
	External         []string
}

type Pipeline struct {
	store  *docstore.Store
	assets *assets.Reconciler
	lists  Allowlists
	log    logger.Interface
	now    func() time.Time
	newID  func() string
}

type Option func(*Pipeline)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDs replaces the uuid generator.
func WithIDs(gen func() string) Option {
	return func(p *Pipeline) { p.newID = gen }
}

func New(store *docstore.Store, rec *assets.Reconciler, lists Allowlists, l logger.Interface, opts ...Option) *Pipeline {
	if l == nil {
		l = logger.Nop()
	}
	p := &Pipeline{
		store:  store,
		assets: rec,
		lists:  lists,
		log:    l,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewID returns a fresh entry identifier, so uploads can be staged under it
// before Submit or Create runs.
func (p *Pipeline) NewID() string { return p.newID() }

// Pending lists all submissions in arrival order.
func (p *Pipeline) Pending(ctx context.Context) ([]models.Entry, error) {
	return docstore.Read(ctx, p.store, models.CollectionPending, []models.Entry{})
}

func (p *Pipeline) GetPending(ctx context.Context, id string) (models.Entry, error) {
	pending, err := p.Pending(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	i := models.IndexOf(pending, id)
	if i < 0 {
		return models.Entry{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return pending[i], nil
}

// Submit validates d and appends it to the pending collection.
func (p *Pipeline) Submit(ctx context.Context, d Draft) (models.Entry, error) {
	e, err := p.add(ctx, d, models.CollectionPending, models.StatusPending, ErrInvalidSubmission)
	if err != nil {
		return e, err
	}
	metrics.ModerationEvents.WithLabelValues("submit").Inc()
	p.log.Infof("submission %s stored (%s %s)", e.ID, e.Brand, e.Model)
	return e, nil
}

// Create validates d and publishes it directly.
func (p *Pipeline) Create(ctx context.Context, d Draft) (models.Entry, error) {
	e, err := p.add(ctx, d, models.CollectionCars, models.StatusPublished, ErrInvalidSubmission)
	if err != nil {
		return e, err
	}
	metrics.ModerationEvents.WithLabelValues("create").Inc()
	p.log.Infof("entry %s created (%s %s)", e.ID, e.Brand, e.Model)
	return e, nil
}

func (p *Pipeline) add(ctx context.Context, d Draft, collection string, status models.Status, invalid error) (models.Entry, error) {
	if d.ID == "" {
		d.ID = p.newID()
	}
	vc, err := p.validationContext(ctx)
	if err != nil {
		p.discardOwner(ctx, d)
		return models.Entry{}, err
	}
	in := d.Fields
	in.Images = assets.Resolve(nil, d.Uploaded, assets.FilterExternal(d.External))
	res := validation.Entry(in, vc)
	if !res.Valid {
		p.discardOwner(ctx, d)
		return models.Entry{}, &ValidationError{Kind: invalid, Errors: res.Errors}
	}

	e := res.Value
	e.ID = d.ID
	e.Status = status
	e.CreatedAt = vc.Now
	e.UpdatedAt = vc.Now
	_, err = docstore.Update(ctx, p.store, collection, func(list []models.Entry) ([]models.Entry, error) {
		if models.IndexOf(list, e.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		return append(append([]models.Entry{}, list...), e), nil
	}, []models.Entry{})
	if err != nil {
		// a duplicate id owns its directory already
		if !errors.Is(err, ErrDuplicateID) {
			p.discardOwner(ctx, d)
		}
		return models.Entry{}, err
	}
	return e, nil
}

// discardOwner drops files staged for a draft that was never stored.
func (p *Pipeline) discardOwner(ctx context.Context, d Draft) {
	if len(d.Uploaded) == 0 {
		return
	}
	p.assets.RemoveOwner(ctx, d.ID)
}

// Approve moves a submission into the published collection.
func (p *Pipeline) Approve(ctx context.Context, id string) (models.Entry, error) {
	taken, err := p.take(ctx, models.CollectionPending, id)
	if err != nil {
		return models.Entry{}, err
	}

	now := p.now()
	published := taken.Clone()
	published.Status = models.StatusPublished
	published.UpdatedAt = now
	if published.CreatedAt.IsZero() {
		published.CreatedAt = now
	}

	_, err = docstore.Update(ctx, p.store, models.CollectionCars, func(cars []models.Entry) ([]models.Entry, error) {
		if models.IndexOf(cars, id) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		return append(append([]models.Entry{}, cars...), published), nil
	}, []models.Entry{})
	if err != nil {
		p.restore(ctx, taken, err)
		return models.Entry{}, fmt.Errorf("publish %s: %w", id, err)
	}

	metrics.ModerationEvents.WithLabelValues("approve").Inc()
	p.log.Infof("submission %s approved", id)
	return published, nil
}

// restore puts a submission back after its publish step failed.
func (p *Pipeline) restore(ctx context.Context, e models.Entry, cause error) {
	_, err := docstore.Update(context.WithoutCancel(ctx), p.store, models.CollectionPending, func(list []models.Entry) ([]models.Entry, error) {
		if models.IndexOf(list, e.ID) >= 0 {
			return list, nil
		}
		return append(append([]models.Entry{}, list...), e), nil
	}, []models.Entry{})
	if err != nil {
		raw, _ := json.Marshal(e)
		p.log.Errorf("submission %s lost: publish failed (%v) and restore failed (%v): %s", e.ID, cause, err, raw)
		return
	}
	p.log.Warnf("submission %s returned to pending after failed publish: %v", e.ID, cause)
}

// Reject discards a submission and its whole asset directory.
func (p *Pipeline) Reject(ctx context.Context, id string) error {
	if _, err := p.take(ctx, models.CollectionPending, id); err != nil {
		return err
	}
	p.assets.RemoveOwner(ctx, id)
	metrics.ModerationEvents.WithLabelValues("reject").Inc()
	p.log.Infof("submission %s rejected", id)
	return nil
}

// Delete removes a published entry and its whole asset directory.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	if _, err := p.take(ctx, models.CollectionCars, id); err != nil {
		return err
	}
	p.assets.RemoveOwner(ctx, id)
	metrics.ModerationEvents.WithLabelValues("delete").Inc()
	p.log.Infof("entry %s deleted", id)
	return nil
}

// take removes id from collection in one turn and returns the removed entry.
func (p *Pipeline) take(ctx context.Context, collection, id string) (models.Entry, error) {
	var taken models.Entry
	_, err := docstore.Update(ctx, p.store, collection, func(list []models.Entry) ([]models.Entry, error) {
		i := models.IndexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
		}
		taken = list[i]
		return append(list[:i:i], list[i+1:]...), nil
	}, []models.Entry{})
	return taken, err
}

// Edit applies patch to the published entry id. Images dropped by the edit
// are deleted after the entry has been stored.
func (p *Pipeline) Edit(ctx context.Context, id string, patch Patch) (models.Entry, error) {
	vc, err := p.validationContext(ctx)
	if err != nil {
		p.assets.Cleanup(ctx, patch.Uploaded, nil)
		return models.Entry{}, err
	}

	var previous []string
	var updated models.Entry
	_, err = docstore.Update(ctx, p.store, models.CollectionCars, func(cars []models.Entry) ([]models.Entry, error) {
		i := models.IndexOf(cars, id)
		if i < 0 {
			return nil, fmt.Errorf("%s %s: %w", models.CollectionCars, id, ErrNotFound)
		}
		cur := cars[i]

		in := patch.apply(inputFromEntry(cur))
		kept := assets.Retain(patch.Kept, cur.Images)
		in.Images = assets.Resolve(kept, patch.Uploaded, assets.FilterExternal(patch.External))
		res := validation.Entry(in, vc)
		if !res.Valid {
			return nil, &ValidationError{Kind: ErrInvalidUpdate, Errors: res.Errors}
		}

		updated = res.Value
		updated.ID = cur.ID
		updated.Status = models.StatusPublished
		updated.CreatedAt = cur.CreatedAt
		if updated.CreatedAt.IsZero() {
			updated.CreatedAt = vc.Now
		}
		updated.UpdatedAt = vc.Now
		previous = cur.Images

		next := append([]models.Entry{}, cars...)
		next[i] = updated
		return next, nil
	}, []models.Entry{})
	if err != nil {
		// the staged files were never referenced by a stored entry
		p.assets.Cleanup(ctx, patch.Uploaded, nil)
		return models.Entry{}, err
	}

	p.assets.Cleanup(ctx, previous, updated.Images)
	metrics.ModerationEvents.WithLabelValues("edit").Inc()
	p.log.Infof("entry %s updated", id)
	return updated, nil
}

// Repair deletes asset directories whose owner is neither pending nor
// published. It must run before requests are served: a submission whose
// files are staged but not yet stored would look orphaned.
func (p *Pipeline) Repair(ctx context.Context) ([]string, error) {
	owners, err := p.assets.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list asset owners: %w", err)
	}
	if len(owners) == 0 {
		return nil, nil
	}
	pending, err := p.Pending(ctx)
	if err != nil {
		return nil, err
	}
	cars, err := docstore.Read(ctx, p.store, models.CollectionCars, []models.Entry{})
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(pending)+len(cars))
	for _, e := range pending {
		known[e.ID] = struct{}{}
	}
	for _, e := range cars {
		known[e.ID] = struct{}{}
	}

	var removed []string
	for _, owner := range owners {
		if _, ok := known[owner]; ok {
			continue
		}
		if ce := p.assets.RemoveOwner(ctx, owner); ce != nil {
			continue
		}
		removed = append(removed, owner)
	}
	if len(removed) > 0 {
		p.log.Warnf("removed %d orphaned asset directories: %v", len(removed), removed)
	}
	return removed, nil
}

// validationContext is read before any collection turn is taken, so no
// operation ever holds two keys.
func (p *Pipeline) validationContext(ctx context.Context) (validation.Context, error) {
	brands, err := p.lists.Brands(ctx)
	if err != nil {
		return validation.Context{}, err
	}
	cats, err := p.lists.Categories(ctx)
	if err != nil {
		return validation.Context{}, err
	}
	return validation.Context{Brands: brands, Categories: models.CategoryNames(cats), Now: p.now()}, nil
}

func inputFromEntry(e models.Entry) validation.EntryInput {
	in := validation.EntryInput{
		Brand:       e.Brand,
		Model:       e.Model,
		Year:        strconv.Itoa(e.Year),
		Consumption: e.Consumption,
		BodyTypes:   append([]string{}, e.BodyTypes...),
	}
	if e.PowerPS != nil {
		in.PowerPS = strconv.Itoa(*e.PowerPS)
	}
	if e.TopSpeed != nil {
		in.TopSpeed = strconv.Itoa(*e.TopSpeed)
	}
	if e.Acceleration != nil {
		in.Acceleration = strconv.FormatFloat(*e.Acceleration, 'f', -1, 64)
	}
	in.CustomAttributes = make(map[string]any, len(e.CustomAttributes))
	for k, v := range e.CustomAttributes {
		in.CustomAttributes[k] = v
	}
	return in
}

func (pt Patch) apply(in validation.EntryInput) validation.EntryInput {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&in.Brand, pt.Brand)
	set(&in.Model, pt.Model)
	set(&in.Year, pt.Year)
	set(&in.PowerPS, pt.PowerPS)
	set(&in.TopSpeed, pt.TopSpeed)
	set(&in.Acceleration, pt.Acceleration)
	set(&in.Consumption, pt.Consumption)
	if pt.BodyTypes != nil {
		in.BodyTypes = pt.BodyTypes
	}
	if pt.CustomAttributes != nil {
		in.CustomAttributes = pt.CustomAttributes
	}
	return in
}
