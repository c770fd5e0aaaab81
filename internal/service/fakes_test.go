package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/model"
)

func pageOf[T any](items []T, q model.ListQuery) *model.Page[T] {
	q = q.Normalize()
	return &model.Page[T]{Items: items, Total: int64(len(items)), Page: q.Page, PageSize: q.PageSize}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeDepartments struct {
	items map[uuid.UUID]model.Department
	refs  map[uuid.UUID]int64
}

func newFakeDepartments() *fakeDepartments {
	return &fakeDepartments{items: map[uuid.UUID]model.Department{}, refs: map[uuid.UUID]int64{}}
}

func (f *fakeDepartments) List(_ context.Context, q model.ListQuery) (*model.Page[model.Department], error) {
	var items []model.Department
	for _, d := range f.items {
		items = append(items, d)
	}
	return pageOf(items, q), nil
}

func (f *fakeDepartments) Get(_ context.Context, id uuid.UUID) (*model.Department, error) {
	d, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (f *fakeDepartments) Create(_ context.Context, d *model.Department) error {
	for _, existing := range f.items {
		if existing.Code == d.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	f.items[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Update(_ context.Context, d *model.Department) error {
	f.items[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeDepartments) CountReferences(_ context.Context, id uuid.UUID) (int64, error) {
	return f.refs[id], nil
}

func (f *fakeDepartments) Ancestors(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var chain []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for cur := &id; cur != nil && !seen[*cur]; {
		seen[*cur] = true
		chain = append(chain, *cur)
		d, ok := f.items[*cur]
		if !ok {
			break
		}
		cur = d.ParentID
	}
	return chain, nil
}

type fakeCustomers struct {
	items map[uuid.UUID]model.Customer
}

func newFakeCustomers(customers ...model.Customer) *fakeCustomers {
	f := &fakeCustomers{items: map[uuid.UUID]model.Customer{}}
	for _, c := range customers {
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) List(_ context.Context, q model.ListQuery) (*model.Page[model.Customer], error) {
	var items []model.Customer
	for _, c := range f.items {
		items = append(items, c)
	}
	return pageOf(items, q), nil
}

func (f *fakeCustomers) Get(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeCustomers) Create(_ context.Context, c *model.Customer) error {
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCustomers) Update(_ context.Context, c *model.Customer) error {
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCustomers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeContracts struct {
	items map[uuid.UUID]model.Contract
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{items: map[uuid.UUID]model.Contract{}}
}

func (f *fakeContracts) List(_ context.Context, q model.ListQuery) (*model.Page[model.Contract], error) {
	var items []model.Contract
	for _, c := range f.items {
		items = append(items, c)
	}
	return pageOf(items, q), nil
}

func (f *fakeContracts) Get(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeContracts) Create(_ context.Context, c *model.Contract) error {
	for _, existing := range f.items {
		if existing.Number == c.Number {
			return gorm.ErrDuplicatedKey
		}
	}
	f.items[c.ID] = *c
	return nil
}

func (f *fakeContracts) Update(_ context.Context, c *model.Contract) error {
	f.items[c.ID] = *c
	return nil
}

func (f *fakeContracts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeContracts) CountEndingBetween(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, c := range f.items {
		if c.Status == model.ContractStatusActive && !c.EndAt.Before(from) && !c.EndAt.After(to) {
			n++
		}
	}
	return n, nil
}

type fakeUsers struct {
	items    map[uuid.UUID]model.User
	sessions map[uuid.UUID]model.Session
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{items: map[uuid.UUID]model.User{}, sessions: map[uuid.UUID]model.Session{}}
}

func (f *fakeUsers) List(_ context.Context, q model.ListQuery) (*model.Page[model.User], error) {
	var items []model.User
	for _, u := range f.items {
		items = append(items, u)
	}
	return pageOf(items, q), nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.items {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.items {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeUsers) CreateSession(_ context.Context, s *model.Session) error {
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeUsers) GetSession(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (f *fakeUsers) RevokeSession(_ context.Context, id uuid.UUID, at time.Time) error {
	s, ok := f.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.RevokedAt = &at
	f.sessions[id] = s
	return nil
}

func (f *fakeUsers) RevokeUserSessions(_ context.Context, userID uuid.UUID, at time.Time) error {
	for id, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			f.sessions[id] = s
		}
	}
	return nil
}

type fakeProducts struct {
	items map[uuid.UUID]model.Product
}

func newFakeProducts(products ...model.Product) *fakeProducts {
	f := &fakeProducts{items: map[uuid.UUID]model.Product{}}
	for _, p := range products {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, q model.ListQuery) (*model.Page[model.Product], error) {
	items, _ := f.All(context.Background())
	return pageOf(items, q), nil
}

func (f *fakeProducts) All(context.Context) ([]model.Product, error) {
	items := make([]model.Product, 0, len(f.items))
	for _, p := range f.items {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	result := map[uuid.UUID]model.Product{}
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	for _, existing := range f.items {
		if existing.Code == p.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	f.items[p.ID] = *p
	return nil
}

type fakeBulletins struct {
	items map[uuid.UUID]model.PriceBulletin
	// unlink runs on delete like the ON DELETE SET NULL references do.
	unlink    []func(id uuid.UUID)
	deleteErr error
}

func newFakeBulletins() *fakeBulletins {
	return &fakeBulletins{items: map[uuid.UUID]model.PriceBulletin{}}
}

func copyBulletin(b model.PriceBulletin) model.PriceBulletin {
	b.Items = append([]model.PriceBulletinItem(nil), b.Items...)
	return b
}

func (f *fakeBulletins) List(_ context.Context, q model.ListQuery, region string) (*model.Page[model.PriceBulletin], error) {
	var items []model.PriceBulletin
	for _, b := range f.items {
		if region == "" || b.Region == region {
			items = append(items, b)
		}
	}
	return pageOf(items, q), nil
}

func (f *fakeBulletins) Get(_ context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	b = copyBulletin(b)
	return &b, nil
}

func (f *fakeBulletins) Create(_ context.Context, b *model.PriceBulletin) error {
	next := 1
	for _, existing := range f.items {
		if existing.Region == b.Region && existing.Version >= next {
			next = existing.Version + 1
		}
	}
	b.Version = next
	f.items[b.ID] = copyBulletin(*b)
	return nil
}

func (f *fakeBulletins) Update(_ context.Context, b *model.PriceBulletin) error {
	f.items[b.ID] = copyBulletin(*b)
	return nil
}

func (f *fakeBulletins) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, fn := range f.unlink {
		fn(id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeBulletins) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.BulletinStatus, publishedAt *time.Time) error {
	b, ok := f.items[id]
	if !ok || b.Status != from {
		return gorm.ErrRecordNotFound
	}
	b.Status = to
	if publishedAt != nil {
		b.PublishedAt = publishedAt
	}
	f.items[id] = b
	return nil
}

func (f *fakeBulletins) FindQuotes(_ context.Context, region string, on time.Time, ids []uuid.UUID) (map[uuid.UUID]model.PriceQuote, error) {
	result := map[uuid.UUID]model.PriceQuote{}
	best := map[uuid.UUID]model.PriceBulletin{}
	for _, b := range f.items {
		if b.Region != region || b.Status != model.BulletinStatusPublished || !b.CoversDate(on) {
			continue
		}
		for _, item := range b.Items {
			prev, ok := best[item.ProductID]
			if ok && !b.Supersedes(prev) {
				continue
			}
			best[item.ProductID] = b
			bulletinID := b.ID
			result[item.ProductID] = model.PriceQuote{
				ProductID:  item.ProductID,
				UnitPrice:  item.UnitPrice,
				BulletinID: &bulletinID,
				Found:      true,
			}
		}
	}
	for id := range result {
		wanted := false
		for _, want := range ids {
			if want == id {
				wanted = true
			}
		}
		if !wanted {
			delete(result, id)
		}
	}
	return result, nil
}

func (f *fakeBulletins) ArchiveLapsed(_ context.Context, on time.Time) (int64, error) {
	var n int64
	for id, b := range f.items {
		if b.Status == model.BulletinStatusPublished && b.ValidTo != nil && b.ValidTo.Before(on) {
			b.Status = model.BulletinStatusArchived
			f.items[id] = b
			n++
		}
	}
	return n, nil
}

type fakePurchases struct {
	items    map[uuid.UUID]model.PurchaseOrder
	products *fakeProducts
}

func newFakePurchases(products *fakeProducts) *fakePurchases {
	return &fakePurchases{items: map[uuid.UUID]model.PurchaseOrder{}, products: products}
}

func (f *fakePurchases) List(_ context.Context, q model.ListQuery) (*model.Page[model.PurchaseOrder], error) {
	var items []model.PurchaseOrder
	for _, o := range f.items {
		items = append(items, o)
	}
	return pageOf(items, q), nil
}

func (f *fakePurchases) Get(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.Lines = append([]model.PurchaseLine(nil), o.Lines...)
	for i := range o.Lines {
		p := f.products.items[o.Lines[i].ProductID]
		o.Lines[i].ProductCode = p.Code
		o.Lines[i].ProductName = p.Name
	}
	return &o, nil
}

func (f *fakePurchases) save(o *model.PurchaseOrder) {
	stored := *o
	stored.Lines = append([]model.PurchaseLine(nil), o.Lines...)
	f.items[o.ID] = stored
}

func (f *fakePurchases) Create(_ context.Context, o *model.PurchaseOrder) error {
	for _, existing := range f.items {
		if existing.Number == o.Number {
			return gorm.ErrDuplicatedKey
		}
	}
	f.save(o)
	return nil
}

func (f *fakePurchases) Update(_ context.Context, o *model.PurchaseOrder) error {
	f.save(o)
	return nil
}

func (f *fakePurchases) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakePurchases) Transition(_ context.Context, id uuid.UUID, from []model.PurchaseStatus, to model.PurchaseStatus, decidedBy *uuid.UUID, reason *string) error {
	o, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	allowed := false
	for _, s := range from {
		if o.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return gorm.ErrRecordNotFound
	}
	o.Status = to
	if decidedBy != nil {
		now := time.Now()
		o.DecidedByUserID = decidedBy
		o.DecidedAt = &now
	}
	if reason != nil {
		o.RejectionReason = reason
	}
	f.items[id] = o
	return nil
}

func (f *fakePurchases) CountByStatus(_ context.Context, status model.PurchaseStatus) (int64, error) {
	var n int64
	for _, o := range f.items {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeImports struct {
	jobs      map[uuid.UUID]model.PriceImportJob
	bulletins *fakeBulletins
}

func newFakeImports(bulletins *fakeBulletins) *fakeImports {
	f := &fakeImports{jobs: map[uuid.UUID]model.PriceImportJob{}, bulletins: bulletins}
	bulletins.unlink = append(bulletins.unlink, func(bulletinID uuid.UUID) {
		for id, job := range f.jobs {
			if job.BulletinID != nil && *job.BulletinID == bulletinID {
				job.BulletinID = nil
				f.jobs[id] = job
			}
		}
	})
	return f
}

func (f *fakeImports) CreateJob(_ context.Context, job *model.PriceImportJob) error {
	stored := *job
	stored.Rows = nil
	f.jobs[job.ID] = stored
	return nil
}

func (f *fakeImports) GetJob(_ context.Context, id uuid.UUID, withContent bool) (*model.PriceImportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !withContent {
		job.Content = nil
	}
	job.Rows = append([]model.PriceImportRow(nil), job.Rows...)
	return &job, nil
}

func (f *fakeImports) ListJobIDsByStatus(_ context.Context, statuses ...model.ImportStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, job := range f.jobs {
		for _, s := range statuses {
			if job.Status == s {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (f *fakeImports) CountByStatus(_ context.Context, status model.ImportStatus) (int64, error) {
	var n int64
	for _, job := range f.jobs {
		if job.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeImports) Transition(_ context.Context, id uuid.UUID, from []model.ImportStatus, to model.ImportStatus, errText string) error {
	job, ok := f.jobs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	allowed := false
	for _, s := range from {
		if job.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return gorm.ErrRecordNotFound
	}
	job.Status = to
	job.Error = errText
	f.jobs[id] = job
	return nil
}

func (f *fakeImports) SaveParsed(_ context.Context, id uuid.UUID, rows []model.PriceImportRow) error {
	job, ok := f.jobs[id]
	if !ok || job.Status != model.ImportStatusParsing {
		return gorm.ErrRecordNotFound
	}
	for i := range rows {
		rows[i].ID = uuid.New()
		rows[i].JobID = id
	}
	job.Rows = rows
	job.Status = model.ImportStatusReady
	f.jobs[id] = job
	return nil
}

func (f *fakeImports) UpdateRow(_ context.Context, row *model.PriceImportRow) error {
	job := f.jobs[row.JobID]
	for i := range job.Rows {
		if job.Rows[i].ID == row.ID {
			job.Rows[i] = *row
		}
	}
	f.jobs[row.JobID] = job
	return nil
}

func (f *fakeImports) Commit(ctx context.Context, id uuid.UUID, bulletin *model.PriceBulletin) error {
	job, ok := f.jobs[id]
	if !ok || job.Status != model.ImportStatusReady {
		return gorm.ErrRecordNotFound
	}
	if err := f.bulletins.Create(ctx, bulletin); err != nil {
		return err
	}
	job.Status = model.ImportStatusCommitted
	job.BulletinID = &bulletin.ID
	f.jobs[id] = job
	return nil
}

func (f *fakeImports) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, job := range f.jobs {
		if !job.Status.Final() && job.CreatedAt.Before(cutoff) {
			job.Status = model.ImportStatusExpired
			f.jobs[id] = job
			n++
		}
	}
	return n, nil
}

type fakeQueue struct {
	ids []uuid.UUID
}

func (q *fakeQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	q.ids = append(q.ids, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType)
	}
	return types
}

type stubDocuments struct{}

func (stubDocuments) Bulletin(model.PriceBulletin) ([]byte, error)      { return []byte("xlsx"), nil }
func (stubDocuments) PurchaseOrder(model.PurchaseOrder) ([]byte, error) { return []byte("%PDF-"), nil }

type stubTokens struct{}

func (stubTokens) Issue(userID, sessionID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	return "token-" + sessionID.String(), time.Now().Add(ttl), nil
}

func principalWith(perms ...string) model.Principal {
	user := model.User{ID: uuid.New(), Username: "tester", Permissions: perms}
	return model.NewPrincipal(user, uuid.New())
}
