package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/schema"
)

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ codec.Resolver = (*Store)(nil)

// Change is one row of the change feed returned by ChangedSince.
type Change struct {
	Type    string
	Key     string
	Seq     int64
	Deleted bool
}

// Save inserts obj or replaces the stored copy.
func (s *Store) Save(ctx context.Context, obj *model.Object) error {
	return s.SaveAll(ctx, obj)
}

// SaveAll saves objects in one transaction.
func (s *Store) SaveAll(ctx context.Context, objs ...*model.Object) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	for _, obj := range objs {
		if err := s.save(ctx, tx, obj); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, q queryer, obj *model.Object) error {
	info, err := s.reg.Lookup(obj.ObjectType())
	if err != nil {
		return err
	}
	key, ok := obj.Key(info)
	if !ok {
		return fmt.Errorf("save %s: object has no primary key", info.Name())
	}
	pk, err := pkText(s.reg, info, key)
	if err != nil {
		return fmt.Errorf("save %s: %w", info.Name(), err)
	}
	props, err := model.ToProps(s.reg, obj)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", info.Name(), pk, err)
	}
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", info.Name(), pk, err)
	}

	var seq int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(updated_seq), 0) + 1 FROM objects`).Scan(&seq); err != nil {
		return fmt.Errorf("save %s %s: next seq: %w", info.Name(), pk, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO objects (type, pk, props, deleted, updated_seq, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, pk) DO UPDATE SET
			props = excluded.props,
			deleted = excluded.deleted,
			updated_seq = excluded.updated_seq,
			updated_at = excluded.updated_at
	`,
		info.Name(),
		pk,
		string(data),
		obj.Deleted(info),
		seq,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", info.Name(), pk, err)
	}
	return nil
}

// Load returns the stored object with the given key. References are
// hydrated: each target is loaded once per call, and targets missing from
// the store come back as unsaved stubs holding only their key.
func (s *Store) Load(ctx context.Context, typeName string, key any) (*model.Object, error) {
	return s.reader(s.db).Load(ctx, typeName, key)
}

// List returns every stored object of a type, soft-deleted ones included,
// ordered by primary key.
func (s *Store) List(ctx context.Context, typeName string) ([]*model.Object, error) {
	return s.reader(s.db).List(ctx, typeName)
}

// ChangedSince returns the rows written after seq, oldest first.
func (s *Store) ChangedSince(ctx context.Context, seq int64) ([]Change, error) {
	return s.reader(s.db).ChangedSince(ctx, seq)
}

// SoftDelete sets the soft-delete flag of a stored object. Rows are never
// removed so the deletion can still be synced.
func (s *Store) SoftDelete(ctx context.Context, typeName string, key any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	defer tx.Rollback()

	obj, err := s.reader(tx).Load(ctx, typeName, key)
	if err != nil {
		return err
	}
	info, err := s.reg.Lookup(typeName)
	if err != nil {
		return err
	}
	obj.SetProperty(info.SoftDeleteProperty(), true)
	if err := s.save(ctx, tx, obj); err != nil {
		return err
	}
	return tx.Commit()
}

// FindOrCreate loads the object with the given key, or saves and returns a
// stub holding only the key and a cleared soft-delete flag. Callers save the
// object again after merging data into it.
func (s *Store) FindOrCreate(ctx context.Context, typeName string, key any) (codec.MutableObject, error) {
	obj, err := s.Load(ctx, typeName, key)
	if err == nil {
		return obj, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	info, err := s.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	stub := model.New(typeName, map[string]any{
		info.PrimaryKey.Name:      key,
		info.SoftDeleteProperty(): false,
	})
	if err := s.Save(ctx, stub); err != nil {
		return nil, err
	}
	return stub, nil
}

// View runs fn inside a read transaction so that every object it loads comes
// from the same snapshot. fn must only use the Reader it is given.
func (s *Store) View(ctx context.Context, fn func(r *Reader) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin view: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.reader(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) reader(q queryer) *Reader {
	return &Reader{q: q, reg: s.reg}
}

// Reader loads objects from one connection or transaction.
type Reader struct {
	q   queryer
	reg *schema.Registry
}

// Load returns the stored object with the given key.
func (r *Reader) Load(ctx context.Context, typeName string, key any) (*model.Object, error) {
	info, err := r.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	pk, err := pkText(r.reg, info, key)
	if err != nil {
		return nil, err
	}

	var data string
	err = r.q.QueryRowContext(ctx, `SELECT props FROM objects WHERE type = ? AND pk = ?`, info.Name(), pk).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", info.Name(), pk, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", info.Name(), pk, err)
	}

	l := r.newLoader(ctx)
	return l.build(info, pk, data)
}

// List returns every stored object of a type ordered by primary key.
func (r *Reader) List(ctx context.Context, typeName string) ([]*model.Object, error) {
	info, err := r.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	order := `pk COLLATE BINARY`
	if info.PrimaryKey.Kind == schema.KindInt {
		order = `CAST(pk AS INTEGER), pk COLLATE BINARY`
	}
	rows, err := r.q.QueryContext(ctx, `SELECT pk, props FROM objects WHERE type = ? ORDER BY `+order, info.Name())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", info.Name(), err)
	}

	// Rows are drained before hydration: references are loaded through the
	// same single connection.
	type row struct{ pk, props string }
	var pending []row
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.pk, &rw.props); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list %s: %w", info.Name(), err)
		}
		pending = append(pending, rw)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list %s: %w", info.Name(), err)
	}
	rows.Close()

	l := r.newLoader(ctx)
	out := make([]*model.Object, 0, len(pending))
	for _, rw := range pending {
		obj, err := l.build(info, rw.pk, rw.props)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// ChangedSince returns the rows written after seq, oldest first.
func (r *Reader) ChangedSince(ctx context.Context, seq int64) ([]Change, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT type, pk, updated_seq, deleted FROM objects
		WHERE updated_seq > ?
		ORDER BY updated_seq ASC
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("changes since %d: %w", seq, err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.Type, &c.Key, &c.Seq, &c.Deleted); err != nil {
			return nil, fmt.Errorf("changes since %d: %w", seq, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// loader hydrates rows into objects, returning one *model.Object per
// (type, key) so that reference cycles terminate.
type loader struct {
	ctx  context.Context
	r    *Reader
	seen map[string]*model.Object
}

func (r *Reader) newLoader(ctx context.Context) *loader {
	return &loader{ctx: ctx, r: r, seen: make(map[string]*model.Object)}
}

func (l *loader) build(info *schema.TypeInfo, pk, data string) (*model.Object, error) {
	id := info.Name() + "\x00" + pk
	if obj, ok := l.seen[id]; ok {
		return obj, nil
	}
	obj := model.New(info.Name(), nil)
	l.seen[id] = obj

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("load %s %s: %w", info.Name(), pk, err)
	}
	built, err := model.FromProps(l.r.reg, info.Name(), raw, l.ref)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", info.Name(), pk, err)
	}
	for name, v := range built.Props() {
		obj.SetProperty(name, v)
	}
	return obj, nil
}

func (l *loader) ref(typeName string, key any) (*model.Object, error) {
	info, err := l.r.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	pk, err := pkText(l.r.reg, info, key)
	if err != nil {
		return nil, err
	}
	if obj, ok := l.seen[info.Name()+"\x00"+pk]; ok {
		return obj, nil
	}

	var data string
	err = l.r.q.QueryRowContext(l.ctx, `SELECT props FROM objects WHERE type = ? AND pk = ?`, info.Name(), pk).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		stub := model.New(typeName, map[string]any{
			info.PrimaryKey.Name:      key,
			info.SoftDeleteProperty(): false,
		})
		l.seen[info.Name()+"\x00"+pk] = stub
		return stub, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", info.Name(), pk, err)
	}
	return l.build(info, pk, data)
}

// pkText renders a primary key the way record names are rendered, without
// string validation.
func pkText(reg *schema.Registry, info *schema.TypeInfo, key any) (string, error) {
	return identity.New(reg, identity.WithValidation(identity.Skip)).RecordName(info, key)
}
