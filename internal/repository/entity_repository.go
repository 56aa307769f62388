package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

// EntityRepository queries content collections described by the schema registry.
type EntityRepository struct {
	db       *sqlx.DB
	registry *models.Registry
}

// NewEntityRepository creates a new instance of EntityRepository.
func NewEntityRepository(db *sqlx.DB, registry *models.Registry) *EntityRepository {
	return &EntityRepository{db: db, registry: registry}
}

// FindMany returns every matching record. Pagination applies only when PageSize is set.
func (r *EntityRepository) FindMany(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, error) {
	ct, err := r.contentType(uid)
	if err != nil {
		return nil, err
	}
	if q.Status == "" {
		q.Status = models.StatusPublished
	}
	p, err := r.plan(ct, q, nil)
	if err != nil {
		return nil, err
	}
	query := p.selectSQL()
	if q.PageSize > 0 {
		q = q.Normalize()
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.PageSize, q.Offset())
	}
	entities, err := r.scan(ctx, p, query)
	if err != nil {
		return nil, fmt.Errorf("find many %s: %w", uid, err)
	}
	return entities, nil
}

// FindPage returns one page of matching records with pagination metadata.
func (r *EntityRepository) FindPage(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, models.Pagination, error) {
	ct, err := r.contentType(uid)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	q = q.Normalize()
	p, err := r.plan(ct, q, nil)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, p.countSQL(), p.args...); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count %s: %w", uid, err)
	}

	query := p.selectSQL() + fmt.Sprintf(" LIMIT %d OFFSET %d", q.PageSize, q.Offset())
	entities, err := r.scan(ctx, p, query)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("find page %s: %w", uid, err)
	}
	return entities, models.NewPagination(q.Page, q.PageSize, total), nil
}

// FindOne returns the record whose numeric id or documentId equals id.
func (r *EntityRepository) FindOne(ctx context.Context, uid, id string, q models.EntityQuery) (models.Entity, error) {
	ct, err := r.contentType(uid)
	if err != nil {
		return nil, err
	}
	if q.Status == "" {
		q.Status = models.StatusPublished
	}
	p, err := r.plan(ct, q, &id)
	if err != nil {
		return nil, err
	}
	entities, err := r.scan(ctx, p, p.selectSQL()+" LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", uid, err)
	}
	if len(entities) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return entities[0], nil
}

// Create inserts values and returns the stored record.
func (r *EntityRepository) Create(ctx context.Context, uid string, values models.Entity) (models.Entity, error) {
	ct, err := r.contentType(uid)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := map[string]interface{}{}
	for name, v := range values {
		attr, ok := ct.Attribute(name)
		if !ok || attr.Name == "id" || !attr.Scalar() {
			return nil, invalidKey(name)
		}
		row[attr.Column] = v
	}
	if _, ok := row["document_id"]; !ok {
		row["document_id"] = uuid.NewString()
	}
	row["created_at"] = now
	row["updated_at"] = now
	if ct.DraftAndPublish {
		if _, ok := row["published_at"]; !ok {
			row["published_at"] = now
		}
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		quoteIdent(ct.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return nil, fmt.Errorf("create %s: %w", uid, err)
	}
	return r.FindOne(ctx, uid, strconv.FormatInt(id, 10), models.EntityQuery{Status: models.StatusDraft})
}

// Delete removes the record with the numeric id.
func (r *EntityRepository) Delete(ctx context.Context, uid string, id int64) error {
	ct, err := r.contentType(uid)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", quoteIdent(ct.Table), quoteIdent("id"))
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", uid, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", uid, err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

func (r *EntityRepository) contentType(uid string) (*models.ContentType, error) {
	ct, ok := r.registry.ContentType(uid)
	if !ok {
		return nil, fmt.Errorf("unknown content type %q", uid)
	}
	return ct, nil
}

type column struct {
	alias string
	attr  models.Attribute
}

type queryPlan struct {
	table   string
	columns []column
	selects []string
	joins   []string
	where   []string
	args    []interface{}
	order   []string
}

func (p *queryPlan) from() string {
	var b strings.Builder
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(p.table))
	for _, j := range p.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(p.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.where, " AND "))
	}
	return b.String()
}

func (p *queryPlan) selectSQL() string {
	return "SELECT " + strings.Join(p.selects, ", ") + p.from() + " ORDER BY " + strings.Join(p.order, ", ")
}

func (p *queryPlan) countSQL() string {
	return "SELECT COUNT(*)" + p.from()
}

func (r *EntityRepository) plan(ct *models.ContentType, q models.EntityQuery, id *string) (*queryPlan, error) {
	res := &schemaResolver{registry: r.registry, ct: ct}
	p := &queryPlan{table: ct.Table}

	if err := r.planColumns(p, ct, q.Fields); err != nil {
		return nil, err
	}
	populate, err := r.planPopulate(p, res, ct, q.Populate)
	if err != nil {
		return nil, err
	}

	if id != nil {
		if n, err := strconv.ParseInt(*id, 10, 64); err == nil {
			p.args = append(p.args, n)
			p.where = append(p.where, qualified(ct.Table, "id")+" = $1")
		} else {
			p.args = append(p.args, *id)
			p.where = append(p.where, qualified(ct.Table, "document_id")+" = $1")
		}
	}
	if ct.DraftAndPublish {
		switch q.Status {
		case models.StatusPublished:
			p.where = append(p.where, qualified(ct.Table, "published_at")+" IS NOT NULL")
		case models.StatusDraft:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Invalid status %s", q.Status))
		}
	}

	compiled, err := filter.Compile(q.Filters, res, len(p.args))
	if err != nil {
		return nil, invalidQuery(err)
	}
	if compiled.Where != "" {
		p.where = append(p.where, compiled.Where)
		p.args = append(p.args, compiled.Args...)
	}

	joined := map[string]bool{}
	for _, rel := range compiled.Joins {
		joined[rel] = true
	}
	for _, rel := range populate {
		joined[rel] = true
	}

	for _, s := range q.Sort {
		col, err := res.ResolveColumn(strings.Split(s.Field, "."))
		if err != nil {
			return nil, invalidQuery(err)
		}
		if col.Join != "" {
			joined[col.Join] = true
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		p.order = append(p.order, col.Expr+" "+dir)
	}
	p.order = append(p.order, qualified(ct.Table, "id")+" ASC")

	for _, attr := range ct.Attributes {
		if attr.Type != models.AttrRelation || !joined[attr.Name] {
			continue
		}
		target, _ := r.registry.ContentType(attr.Target)
		p.joins = append(p.joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s = %s",
			quoteIdent(target.Table), quoteIdent(attr.Name),
			qualified(attr.Name, "id"), qualified(ct.Table, attr.Column)))
	}
	return p, nil
}

func (r *EntityRepository) planColumns(p *queryPlan, ct *models.ContentType, fields []string) error {
	wanted := map[string]bool{}
	for _, f := range fields {
		attr, ok := ct.Attribute(f)
		if !ok || attr.Private || !attr.Scalar() {
			return invalidKey(f)
		}
		wanted[f] = true
	}
	for _, attr := range ct.Attributes {
		if !attr.Scalar() {
			continue
		}
		if len(wanted) > 0 && !wanted[attr.Name] && attr.Name != "id" && attr.Name != "documentId" {
			continue
		}
		p.addColumn(ct.Table, attr.Name, attr)
	}
	return nil
}

func (r *EntityRepository) planPopulate(p *queryPlan, res *schemaResolver, ct *models.ContentType, populate []string) ([]string, error) {
	var names []string
	for _, name := range populate {
		if name == "*" {
			names = names[:0]
			for _, attr := range ct.Attributes {
				if attr.Type == models.AttrRelation {
					names = append(names, attr.Name)
				}
			}
			break
		}
		attr, ok := ct.Attribute(name)
		if !ok || attr.Private || attr.Type != models.AttrRelation {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Invalid populate key %s", name))
		}
		names = append(names, name)
	}

	for _, name := range names {
		attr, _ := ct.Attribute(name)
		target, ok := res.registry.ContentType(attr.Target)
		if !ok {
			return nil, fmt.Errorf("relation %s targets unknown type %s", name, attr.Target)
		}
		for _, tattr := range target.Attributes {
			if !tattr.Scalar() || tattr.Private {
				continue
			}
			p.addColumn(name, name+"."+tattr.Name, tattr)
		}
	}
	return names, nil
}

func (p *queryPlan) addColumn(table, alias string, attr models.Attribute) {
	p.columns = append(p.columns, column{alias: alias, attr: attr})
	p.selects = append(p.selects, qualified(table, attr.Column)+" AS "+quoteIdent(alias))
}

func (r *EntityRepository) scan(ctx context.Context, p *queryPlan, query string) ([]models.Entity, error) {
	rows, err := r.db.QueryxContext(ctx, query, p.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[string]models.AttributeType, len(p.columns))
	for _, c := range p.columns {
		types[c.alias] = c.attr.Type
	}

	entities := make([]models.Entity, 0)
	for rows.Next() {
		raw := map[string]interface{}{}
		if err := rows.MapScan(raw); err != nil {
			return nil, err
		}
		entities = append(entities, nest(raw, types))
	}
	return entities, rows.Err()
}

// nest converts a flat row into an entity, grouping "relation.attr" aliases into objects.
// A relation whose id is NULL becomes nil.
func nest(raw map[string]interface{}, types map[string]models.AttributeType) models.Entity {
	out := models.Entity{}
	relations := map[string]models.Entity{}
	for alias, v := range raw {
		v = convert(v, types[alias])
		rel, attr, ok := strings.Cut(alias, ".")
		if !ok {
			out[alias] = v
			continue
		}
		if relations[rel] == nil {
			relations[rel] = models.Entity{}
		}
		relations[rel][attr] = v
	}
	for rel, values := range relations {
		if values["id"] == nil {
			out[rel] = nil
			continue
		}
		out[rel] = values
	}
	return out
}

func convert(v interface{}, t models.AttributeType) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if t == models.AttrDecimal {
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return string(b)
}

// schemaResolver resolves filter and sort paths against a content type.
type schemaResolver struct {
	registry *models.Registry
	ct       *models.ContentType
}

func (s *schemaResolver) ResolveColumn(path []string) (filter.Column, error) {
	attr, ok := s.ct.Attribute(path[0])
	if !ok || attr.Private {
		return filter.Column{}, invalidKey(strings.Join(path, "."))
	}
	switch {
	case len(path) == 1 && attr.Scalar():
		return filter.Column{Expr: qualified(s.ct.Table, attr.Column), Text: attr.Type.Textual()}, nil
	case len(path) == 1 && attr.Type == models.AttrRelation:
		return filter.Column{Expr: qualified(s.ct.Table, attr.Column)}, nil
	case len(path) == 2 && attr.Type == models.AttrRelation:
		target, ok := s.registry.ContentType(attr.Target)
		if !ok {
			return filter.Column{}, invalidKey(strings.Join(path, "."))
		}
		tattr, ok := target.Attribute(path[1])
		if !ok || tattr.Private || !tattr.Scalar() {
			return filter.Column{}, invalidKey(strings.Join(path, "."))
		}
		return filter.Column{Expr: qualified(attr.Name, tattr.Column), Join: attr.Name, Text: tattr.Type.Textual()}, nil
	}
	return filter.Column{}, invalidKey(strings.Join(path, "."))
}

func invalidKey(key string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, "Invalid key "+key)
}

func invalidQuery(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(table, column string) string {
	return quoteIdent(table) + "." + quoteIdent(column)
}
