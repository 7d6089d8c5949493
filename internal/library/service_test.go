package library

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	"github.com/tavernkeep/bazaar-backend/pkg/pagination"
)

func newLibraryService(t *testing.T, repo *stubLibraryRepo, limit int) Service {
	t.Helper()
	svc, err := NewService(repo, config.LimitsConfig{LibraryItems: limit})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateLibraryItemDefaultsToCustom(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 10)

	dto, err := svc.Create(context.Background(), uuid.New(), CreateLibraryItemInput{
		Name: "Rope (50ft)",
		Type: enums.ItemTypeGear,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Source != enums.ItemSourceCustom {
		t.Fatalf("expected custom source, got %s", dto.Source)
	}
}

func TestCreateLibraryItemEnforcesLimit(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 1)
	dmID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, dmID, CreateLibraryItemInput{Name: "A", Type: enums.ItemTypeGear}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, dmID, CreateLibraryItemInput{Name: "B", Type: enums.ItemTypeGear})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeLimitReached {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestCreateWeaponNormalizesDetails(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 10)

	dto, err := svc.Create(context.Background(), uuid.New(), CreateLibraryItemInput{
		Name:    "Longsword",
		Type:    enums.ItemTypeWeapon,
		Source:  enums.ItemSourceOfficial,
		Details: json.RawMessage(`{"weapon_type":"martial melee","damage":{"dice":"1d8","type":"slashing"},"range":{}}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var details WeaponDetails
	if err := json.Unmarshal(dto.Details, &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if details.Range != nil {
		t.Fatalf("empty range should be dropped on create")
	}
}

func TestUpdateOfficialItemFlipsToModified(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 10)
	dmID := uuid.New()

	item := repo.add(dmID, "Longsword", enums.ItemTypeGear, enums.ItemSourceOfficial)

	newName := "Longsword +0"
	dto, err := svc.Update(context.Background(), dmID, item.ID, UpdateLibraryItemInput{Name: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Source != enums.ItemSourceModified {
		t.Fatalf("expected modified source after edit, got %s", dto.Source)
	}
	if dto.Name != newName {
		t.Fatalf("name not updated")
	}
}

func TestDeleteReferencedItemConflicts(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 10)
	dmID := uuid.New()

	item := repo.add(dmID, "Potion", enums.ItemTypeConsumable, enums.ItemSourceCustom)
	repo.refs[item.ID] = 2

	err := svc.Delete(context.Background(), dmID, item.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	repo.refs[item.ID] = 0
	if err := svc.Delete(context.Background(), dmID, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.items[item.ID]; ok {
		t.Fatalf("item should be gone")
	}
}

func TestListPaginates(t *testing.T) {
	repo := newStubLibraryRepo()
	svc := newLibraryService(t, repo, 100)
	dmID := uuid.New()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		item := repo.add(dmID, "Item", enums.ItemTypeGear, enums.ItemSourceCustom)
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	first, err := svc.List(context.Background(), dmID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == nil {
		t.Fatalf("expected 2 items and a cursor, got %d", len(first.Items))
	}

	second, err := svc.List(context.Background(), dmID, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 1 || second.NextCursor != nil {
		t.Fatalf("expected final page of 1, got %d (cursor=%v)", len(second.Items), second.NextCursor)
	}
}

// --- stub ---

type stubLibraryRepo struct {
	items map[uuid.UUID]*models.LibraryItem
	refs  map[uuid.UUID]int64
}

func newStubLibraryRepo() *stubLibraryRepo {
	return &stubLibraryRepo{
		items: map[uuid.UUID]*models.LibraryItem{},
		refs:  map[uuid.UUID]int64{},
	}
}

func (s *stubLibraryRepo) add(dmID uuid.UUID, name string, itemType enums.ItemType, source enums.ItemSource) *models.LibraryItem {
	item := &models.LibraryItem{
		ID: uuid.New(), DMID: dmID, Name: name, Type: itemType, Source: source,
		CreatedAt: time.Now().UTC(),
	}
	s.items[item.ID] = item
	return item
}

func (s *stubLibraryRepo) Create(_ context.Context, dto CreateLibraryItemDTO) (*models.LibraryItem, error) {
	item := dto.ToModel()
	item.ID = uuid.New()
	item.CreatedAt = time.Now().UTC()
	s.items[item.ID] = item
	return item, nil
}

func (s *stubLibraryRepo) List(_ context.Context, dmID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LibraryItem, error) {
	var rows []models.LibraryItem
	for _, item := range s.items {
		if item.DMID != dmID {
			continue
		}
		rows = append(rows, *item)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})
	if cursor != nil {
		var filtered []models.LibraryItem
		for _, row := range rows {
			if row.CreatedAt.Before(cursor.CreatedAt) ||
				(row.CreatedAt.Equal(cursor.CreatedAt) && row.ID.String() < cursor.ID.String()) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubLibraryRepo) CountByDM(_ context.Context, dmID uuid.UUID) (int64, error) {
	var n int64
	for _, item := range s.items {
		if item.DMID == dmID {
			n++
		}
	}
	return n, nil
}

func (s *stubLibraryRepo) FindByIDForDM(_ context.Context, dmID, id uuid.UUID) (*models.LibraryItem, error) {
	if item, ok := s.items[id]; ok && item.DMID == dmID {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) Update(_ context.Context, item *models.LibraryItem) error {
	if stored, ok := s.items[item.ID]; ok {
		stored.Name = item.Name
		stored.Description = item.Description
		stored.Details = item.Details
		stored.Source = item.Source
	}
	return nil
}

func (s *stubLibraryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.items, id)
	return nil
}

func (s *stubLibraryRepo) ReferenceCount(_ context.Context, id uuid.UUID) (int64, error) {
	return s.refs[id], nil
}
