package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ProductRepository stub ─────────────────────────────────────────

type stubProductRepo struct {
	mu    sync.Mutex
	items map[string]*model.Product
	// beforeLock runs ahead of FindByIDForUpdateTx, standing in for a writer
	// that commits between the unlocked read and the row lock.
	beforeLock func(id string)
}

func newStubProductRepo(products ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{items: make(map[string]*model.Product)}
	for _, p := range products {
		r.items[p.ProductID] = cloneProduct(p)
	}
	return r
}

func cloneProduct(p *model.Product) *model.Product {
	c := *p
	c.SizeStock = append([]model.SizeStock(nil), p.SizeStock...)
	c.FabricUsed = append([]model.ProductFabric(nil), p.FabricUsed...)
	c.Variants = append([]model.ProductVariant(nil), p.Variants...)
	return &c
}

func (r *stubProductRepo) get(id string) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneProduct(r.items[id])
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ProductID] = cloneProduct(p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return &model.Product{}, gorm.ErrRecordNotFound
	}
	return cloneProduct(p), nil
}

func (r *stubProductRepo) sorted(activeOnly bool) []model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.items {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (r *stubProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.sorted(filter.Active != "all") {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListActive(_ context.Context) ([]model.Product, error) {
	return r.sorted(true), nil
}

func (r *stubProductRepo) SetDiscontinued(_ context.Context, id string, discontinued bool, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Discontinued = discontinued
	p.Status = status
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id string) (*model.Product, error) {
	if r.beforeLock != nil {
		r.beforeLock(id)
	}
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) SaveStockTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ProductID] = cloneProduct(p)
	return nil
}

func (r *stubProductRepo) SaveDetailsTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[p.ProductID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	details := cloneProduct(p)
	details.Stock, details.ReservedStock = stored.Stock, stored.ReservedStock
	details.SizeStock = append([]model.SizeStock(nil), stored.SizeStock...)
	details.FabricUsed = append([]model.ProductFabric(nil), stored.FabricUsed...)
	details.Variants = append([]model.ProductVariant(nil), stored.Variants...)
	r.items[p.ProductID] = details
	return nil
}

func (r *stubProductRepo) AddVariantTx(_ *gorm.DB, v *model.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, variant := r.items[v.ParentProductID], r.items[v.VariantProductID]
	if parent == nil || variant == nil {
		return gorm.ErrRecordNotFound
	}
	parent.Variants = append(parent.Variants, *v)
	id := v.ParentProductID
	variant.ParentProductID = &id
	return nil
}

func (r *stubProductRepo) RemoveVariantTx(_ *gorm.DB, parentID, variantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent := r.items[parentID]
	if parent == nil {
		return gorm.ErrRecordNotFound
	}
	for i, v := range parent.Variants {
		if v.VariantProductID == variantID {
			parent.Variants = append(parent.Variants[:i:i], parent.Variants[i+1:]...)
			if variant := r.items[variantID]; variant != nil {
				variant.ParentProductID = nil
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) HardDeleteTx(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	for _, p := range r.items {
		if p.ParentProductID != nil && *p.ParentProductID == id {
			p.ParentProductID = nil
		}
		kept := p.Variants[:0:0]
		for _, v := range p.Variants {
			if v.VariantProductID != id {
				kept = append(kept, v)
			}
		}
		p.Variants = kept
	}
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// ── In-memory FabricRepository stub ──────────────────────────────────────────

type stubFabricRepo struct {
	mu     sync.Mutex
	items  map[string]*model.Fabric
	usages map[string][]model.FabricUsage
}

func newStubFabricRepo(fabrics ...*model.Fabric) *stubFabricRepo {
	r := &stubFabricRepo{items: make(map[string]*model.Fabric), usages: make(map[string][]model.FabricUsage)}
	for _, f := range fabrics {
		c := *f
		r.items[f.FabricID] = &c
	}
	return r
}

func (r *stubFabricRepo) get(id string) model.Fabric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.items[id]
}

func (r *stubFabricRepo) usageOf(id string) []model.FabricUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.FabricUsage(nil), r.usages[id]...)
}

func (r *stubFabricRepo) CreateTx(_ *gorm.DB, f *model.Fabric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *f
	r.items[f.FabricID] = &c
	return nil
}

func (r *stubFabricRepo) FindByID(_ context.Context, id string) (*model.Fabric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok {
		return &model.Fabric{}, gorm.ErrRecordNotFound
	}
	c := *f
	return &c, nil
}

func (r *stubFabricRepo) List(_ context.Context) ([]model.Fabric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Fabric
	for _, f := range r.items {
		if f.IsActive {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FabricID < out[j].FabricID })
	return out, nil
}

func (r *stubFabricRepo) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *stubFabricRepo) ListUsage(_ context.Context, fabricID string) ([]model.FabricUsage, error) {
	return r.usageOf(fabricID), nil
}

func (r *stubFabricRepo) ReplaceUsage(_ context.Context, fabricID string, usages []model.FabricUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages[fabricID] = append([]model.FabricUsage(nil), usages...)
	return nil
}

func (r *stubFabricRepo) SetDiscontinued(_ context.Context, id string, discontinued bool, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Discontinued = discontinued
	f.Status = status
	return nil
}

func (r *stubFabricRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || !f.IsActive {
		return gorm.ErrRecordNotFound
	}
	f.IsActive = false
	return nil
}

func (r *stubFabricRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []string) (map[string]*model.Fabric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*model.Fabric, len(ids))
	for _, id := range ids {
		if f, ok := r.items[id]; ok {
			c := *f
			out[id] = &c
		}
	}
	return out, nil
}

func (r *stubFabricRepo) DeductStockTx(_ *gorm.DB, fabricID string, meters decimal.Decimal, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[fabricID]
	if !ok || f.CurrentStock.LessThan(meters) {
		return repository.ErrStockConflict
	}
	f.CurrentStock = f.CurrentStock.Sub(meters)
	f.Status = status
	return nil
}

func (r *stubFabricRepo) SetStockTx(_ *gorm.DB, fabricID string, stock decimal.Decimal, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[fabricID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.CurrentStock = stock
	f.Status = status
	return nil
}

func (r *stubFabricRepo) AppendUsageTx(_ *gorm.DB, u *model.FabricUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages[u.FabricID] = append(r.usages[u.FabricID], *u)
	return nil
}

func (r *stubFabricRepo) DB() *gorm.DB { return nil }

// ── In-memory TransactionRepository stub ─────────────────────────────────────

type stubTxRepo struct {
	mu        sync.Mutex
	inventory []model.InventoryTransaction
	fabric    []model.FabricTransaction
	failWith  error
}

func (r *stubTxRepo) CreateInventoryTx(_ *gorm.DB, t *model.InventoryTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.inventory = append(r.inventory, *t)
	return nil
}

func (r *stubTxRepo) CreateFabricTx(_ *gorm.DB, t *model.FabricTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.fabric = append(r.fabric, *t)
	return nil
}

func (r *stubTxRepo) inventoryFor(productID string) []model.InventoryTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryTransaction
	for _, t := range r.inventory {
		if t.ProductID == productID {
			out = append(out, t)
		}
	}
	return out
}

func (r *stubTxRepo) fabricFor(fabricID string) []model.FabricTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FabricTransaction
	for _, t := range r.fabric {
		if t.FabricID == fabricID {
			out = append(out, t)
		}
	}
	return out
}

func (r *stubTxRepo) ListInventory(_ context.Context, filter dto.InventoryTransactionFilter) ([]model.InventoryTransaction, int64, error) {
	var out []model.InventoryTransaction
	for _, t := range r.inventoryFor(filter.ProductID) {
		if filter.Type == "" || t.Type == filter.Type {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubTxRepo) ListFabric(_ context.Context, fabricID string, filter dto.FabricTransactionFilter) ([]model.FabricTransaction, int64, error) {
	var out []model.FabricTransaction
	for _, t := range r.fabricFor(fabricID) {
		if filter.Type == "" || t.Type == filter.Type {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubTxRepo) ListFabricUsage(_ context.Context, fabricID string) ([]model.FabricTransaction, error) {
	var out []model.FabricTransaction
	for _, t := range r.fabricFor(fabricID) {
		if t.Type == "usage" {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── In-memory EmbeddingRepository stub ───────────────────────────────────────

type stubEmbeddingRepo struct {
	mu    sync.Mutex
	items []model.ProductEmbedding
}

func (r *stubEmbeddingRepo) Create(_ context.Context, e *model.ProductEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *e)
	return nil
}

func (r *stubEmbeddingRepo) ListActive(_ context.Context) ([]model.ProductEmbedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ProductEmbedding(nil), r.items...), nil
}

func (r *stubEmbeddingRepo) CountByProduct(_ context.Context, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.items {
		if e.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (r *stubEmbeddingRepo) ListByProduct(_ context.Context, productID string) ([]model.ProductEmbedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductEmbedding
	for _, e := range r.items {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEmbeddingRepo) DeleteByProductTx(_ *gorm.DB, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0:0]
	for _, e := range r.items {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	r.items = kept
	return nil
}

// ── In-memory QRCodeRepository stub ──────────────────────────────────────────

type stubQRRepo struct {
	mu    sync.Mutex
	items map[string]*model.QRCode
	// creates counts stored codes, for get-or-create assertions.
	creates int
}

func newStubQRRepo() *stubQRRepo {
	return &stubQRRepo{items: make(map[string]*model.QRCode)}
}

func (r *stubQRRepo) FindByProductTx(_ *gorm.DB, productID string) (*model.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.items[productID]
	if !ok {
		return &model.QRCode{}, gorm.ErrRecordNotFound
	}
	c := *q
	return &c, nil
}

func (r *stubQRRepo) CreateTx(_ *gorm.DB, q *model.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[q.ProductID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	c := *q
	r.items[q.ProductID] = &c
	r.creates++
	return nil
}

func (r *stubQRRepo) TouchTx(_ *gorm.DB, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.items {
		if q.ID == id {
			q.AccessCount++
			q.LastAccessed = at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubQRRepo) DeleteByProductTx(_ *gorm.DB, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[productID]; !ok {
		return 0, nil
	}
	delete(r.items, productID)
	return 1, nil
}

func (r *stubQRRepo) List(_ context.Context) ([]model.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.QRCode, 0, len(r.items))
	for _, q := range r.items {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (r *stubQRRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.items))
	r.items = make(map[string]*model.QRCode)
	return n, nil
}

func (r *stubQRRepo) DB() *gorm.DB { return nil }

type fakeQREncoder struct{ err error }

func (fakeQREncoder) ProductURL(productID string) string { return "https://shop.test/p/" + productID }

func (e fakeQREncoder) PNG(content string, size int) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []byte(fmt.Sprintf("png:%d:%s", size, content)), nil
}

// ── In-memory UserRepository stub ────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) Upsert(ctx context.Context, u *model.User) error {
	for id, existing := range r.users {
		if existing.Username == u.Username {
			u.ID = id
		}
	}
	u.IsActive = true
	return r.Create(ctx, u)
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// ── Collaborators ────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []worker.StockAlert
}

func (p *recordingPublisher) EnqueueStockAlert(_ context.Context, a worker.StockAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return nil
}

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (e *fakeEmbedder) EmbedImage(_ context.Context, filename string, _ []byte) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vectors[filename], nil
}
