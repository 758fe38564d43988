package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fee-management-system/app/models"

	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of the ledger store. It backs
// unit tests and the "memory" database driver. All methods are safe for
// concurrent use; each call observes a consistent snapshot.
type MemoryStore struct {
	mu            sync.Mutex
	now           func() time.Time
	seq           int64
	users         map[string]*models.User
	fees          map[string]*models.Fee
	feeSeq        map[string]int64
	assignments   map[string]map[string]time.Time // fee id -> guardian id -> assigned at
	payments      []memPayment
	notifications map[string]*models.Notification
	recipients    map[string]map[string]*models.RecipientState // notification id -> guardian id
	err           error
	failRecipient map[string]error
}

type memPayment struct {
	models.Payment
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		users:         map[string]*models.User{},
		fees:          map[string]*models.Fee{},
		feeSeq:        map[string]int64{},
		assignments:   map[string]map[string]time.Time{},
		notifications: map[string]*models.Notification{},
		recipients:    map[string]map[string]*models.RecipientState{},
		failRecipient: map[string]error{},
	}
}

// WithClock sets the time source used for generated timestamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// WithError makes every subsequent call fail with err.
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailRecipient makes AddRecipient fail for one guardian.
func (m *MemoryStore) FailRecipient(guardianID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRecipient[guardianID] = err
}

func (m *MemoryStore) next() int64 {
	m.seq++
	return m.seq
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	user.CreatedAt = m.now().Add(time.Duration(m.next()))
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) ListGuardians(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.guardians(), nil
}

func (m *MemoryStore) guardians() []models.User {
	guardians := []models.User{}
	for _, u := range m.users {
		if u.Role == models.RoleGuardian {
			guardians = append(guardians, *u)
		}
	}
	sort.Slice(guardians, func(i, j int) bool {
		return guardians[i].CreatedAt.After(guardians[j].CreatedAt)
	})
	return guardians
}

func (m *MemoryStore) ExistingGuardians(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	found := make(map[string]bool, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok && u.Role == models.RoleGuardian {
			found[id] = true
		}
	}
	return found, nil
}

func (m *MemoryStore) CreateFee(_ context.Context, fee *models.Fee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.insertFee(fee)
	return nil
}

func (m *MemoryStore) insertFee(fee *models.Fee) {
	fee.CreatedAt = m.now()
	cp := *fee
	m.fees[fee.ID] = &cp
	m.feeSeq[fee.ID] = m.next()
}

func (m *MemoryStore) UpdateFee(_ context.Context, fee *models.Fee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	existing, ok := m.fees[fee.ID]
	if !ok {
		return ErrNotFound
	}
	fee.CreatedAt = existing.CreatedAt
	cp := *fee
	m.fees[fee.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteFee(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.fees[id]; !ok {
		return ErrNotFound
	}
	for _, p := range m.payments {
		if p.FeeID == id {
			return ErrFeeInUse
		}
	}
	delete(m.fees, id)
	delete(m.feeSeq, id)
	delete(m.assignments, id)
	return nil
}

func (m *MemoryStore) GetFee(_ context.Context, id string) (*models.Fee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	f, ok := m.fees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryStore) ListFees(_ context.Context) ([]models.Fee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	fees := []models.Fee{}
	for _, f := range m.fees {
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool {
		return m.feeSeq[fees[i].ID] > m.feeSeq[fees[j].ID]
	})
	return fees, nil
}

func (m *MemoryStore) AssignFee(_ context.Context, guardianID, feeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}

	if _, ok := m.fees[feeID]; !ok {
		return false, ErrNotFound
	}
	if _, ok := m.users[guardianID]; !ok {
		return false, ErrNotFound
	}
	return m.assign(guardianID, feeID), nil
}

func (m *MemoryStore) assign(guardianID, feeID string) bool {
	byGuardian, ok := m.assignments[feeID]
	if !ok {
		byGuardian = map[string]time.Time{}
		m.assignments[feeID] = byGuardian
	}
	if _, exists := byGuardian[guardianID]; exists {
		return false
	}
	byGuardian[guardianID] = m.now()
	return true
}

func (m *MemoryStore) CreateFeeWithAssignment(_ context.Context, fee *models.Fee, guardianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.users[guardianID]; !ok {
		return ErrNotFound
	}
	m.insertFee(fee)
	m.assign(guardianID, fee.ID)
	return nil
}

func (m *MemoryStore) settlements(guardianID string) []models.Settlement {
	settlements := []models.Settlement{}
	for _, u := range m.users {
		if u.Role != models.RoleGuardian || (guardianID != "" && u.ID != guardianID) {
			continue
		}
		for _, f := range m.fees {
			assigned := m.assignments[f.ID]
			_, targeted := assigned[u.ID]
			if len(assigned) > 0 && !targeted {
				continue
			}
			settlements = append(settlements, models.Settlement{
				GuardianID:    u.ID,
				GuardianName:  u.Name,
				GuardianEmail: u.Email,
				Fee:           *f,
				Targeted:      targeted,
				Paid:          m.completed(u.ID, f.ID),
			})
		}
	}
	sort.SliceStable(settlements, func(i, j int) bool {
		a, b := settlements[i], settlements[j]
		if !a.Fee.DueDate.Equal(b.Fee.DueDate.Time) {
			return a.Fee.DueDate.Before(b.Fee.DueDate)
		}
		if a.GuardianName != b.GuardianName {
			return a.GuardianName < b.GuardianName
		}
		return m.feeSeq[a.Fee.ID] < m.feeSeq[b.Fee.ID]
	})
	return settlements
}

func (m *MemoryStore) GuardianSettlements(_ context.Context, guardianID string) ([]models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if guardianID == "" {
		return []models.Settlement{}, nil
	}
	return m.settlements(guardianID), nil
}

func (m *MemoryStore) AllSettlements(_ context.Context) ([]models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.settlements(""), nil
}

func (m *MemoryStore) completed(guardianID, feeID string) bool {
	for _, p := range m.payments {
		if p.GuardianID == guardianID && p.FeeID == feeID && p.Status == models.PaymentCompleted {
			return true
		}
	}
	return false
}

func (m *MemoryStore) HasCompletedPayment(_ context.Context, guardianID, feeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.completed(guardianID, feeID), nil
}

// InsertCompletedPayment checks and inserts under one lock, mirroring the
// transactional recheck of the Postgres store.
func (m *MemoryStore) InsertCompletedPayment(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.fees[payment.FeeID]; !ok {
		return ErrNotFound
	}
	if m.completed(payment.GuardianID, payment.FeeID) {
		return ErrAlreadyPaid
	}
	payment.Status = models.PaymentCompleted
	payment.PaymentDate = m.now()
	m.payments = append(m.payments, memPayment{Payment: *payment, seq: m.next()})
	return nil
}

// AddPayment stores a payment as-is. Tests use it to seed pending and
// failed rows, which the ledger itself never writes.
func (m *MemoryStore) AddPayment(payment models.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = m.now()
	}
	m.payments = append(m.payments, memPayment{Payment: payment, seq: m.next()})
}

func (m *MemoryStore) view(p memPayment) models.PaymentView {
	v := models.PaymentView{Payment: p.Payment}
	if u, ok := m.users[p.GuardianID]; ok {
		v.GuardianName = u.Name
		v.GuardianEmail = u.Email
	}
	if f, ok := m.fees[p.FeeID]; ok {
		v.FeeKind = f.Kind
		v.FeeDescription = f.Description
		v.DueDate = f.DueDate
	}
	return v
}

// sortedPayments returns payments newest first.
func (m *MemoryStore) sortedPayments(keep func(memPayment) bool) []memPayment {
	var out []memPayment
	for _, p := range m.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (m *MemoryStore) views(payments []memPayment) []models.PaymentView {
	views := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, m.view(p))
	}
	return views
}

func (m *MemoryStore) GetPayment(_ context.Context, id string) (*models.PaymentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	for _, p := range m.payments {
		if p.ID == id {
			v := m.view(p)
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) PaymentsForGuardian(_ context.Context, guardianID string) ([]models.PaymentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.views(m.sortedPayments(func(p memPayment) bool { return p.GuardianID == guardianID })), nil
}

func (m *MemoryStore) ListAllPayments(_ context.Context) ([]models.PaymentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.views(m.sortedPayments(func(memPayment) bool { return true })), nil
}

func (m *MemoryStore) RecentCompletedPayments(_ context.Context, limit int) ([]models.PaymentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	completed := m.sortedPayments(func(p memPayment) bool { return p.Status == models.PaymentCompleted })
	if len(completed) > limit {
		completed = completed[:limit]
	}
	return m.views(completed), nil
}

func (m *MemoryStore) CompletedTotals(_ context.Context) (int, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, decimal.Zero, m.err
	}

	count, total := 0, decimal.Zero
	for _, p := range m.payments {
		if p.Status == models.PaymentCompleted {
			count++
			total = total.Add(p.Amount)
		}
	}
	return count, total, nil
}

func (m *MemoryStore) ListPayments(_ context.Context, filters models.PaymentFilters, limit, offset int) ([]models.PaymentView, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}

	search := strings.ToLower(filters.Search)
	matched := m.sortedPayments(func(p memPayment) bool {
		if filters.Status != "" && p.Status != filters.Status {
			return false
		}
		if !filters.Since.IsZero() && p.PaymentDate.Before(filters.Since) {
			return false
		}
		if search != "" {
			u, ok := m.users[p.GuardianID]
			if !ok {
				return false
			}
			if !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(strings.ToLower(u.Email), search) {
				return false
			}
		}
		return true
	})

	total := len(matched)
	if offset >= total {
		return []models.PaymentView{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.views(matched[offset:end]), total, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.users[n.AuthorID]; !ok {
		return ErrNotFound
	}
	n.SentAt = m.now().Add(time.Duration(m.next()))
	cp := *n
	m.notifications[n.ID] = &cp
	m.recipients[n.ID] = map[string]*models.RecipientState{}
	return nil
}

func (m *MemoryStore) AddRecipient(_ context.Context, notificationID, guardianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := m.failRecipient[guardianID]; err != nil {
		return err
	}

	byGuardian, ok := m.recipients[notificationID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.users[guardianID]; !ok {
		return ErrNotFound
	}
	byGuardian[guardianID] = &models.RecipientState{NotificationID: notificationID, GuardianID: guardianID}
	return nil
}

func (m *MemoryStore) NotificationsFor(_ context.Context, guardianID string) ([]models.NotificationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	views := []models.NotificationView{}
	for id, byGuardian := range m.recipients {
		state, ok := byGuardian[guardianID]
		if !ok {
			continue
		}
		n := m.notifications[id]
		v := models.NotificationView{Notification: *n, IsRead: state.IsRead, ReadAt: state.ReadAt}
		if author, ok := m.users[n.AuthorID]; ok {
			v.AuthorName = author.Name
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].SentAt.After(views[j].SentAt)
	})
	return views, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, notificationID, guardianID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	state, ok := m.recipients[notificationID][guardianID]
	if !ok {
		return ErrNotFound
	}
	state.IsRead = true
	state.ReadAt = &at
	return nil
}

func (m *MemoryStore) DeleteRecipient(_ context.Context, notificationID, guardianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	byGuardian := m.recipients[notificationID]
	if _, ok := byGuardian[guardianID]; !ok {
		return ErrNotFound
	}
	delete(byGuardian, guardianID)
	return nil
}

// NotificationExists reports whether the notification row is still stored.
func (m *MemoryStore) NotificationExists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notifications[id]
	return ok
}

// RecipientCount returns the number of recipient rows of a notification.
func (m *MemoryStore) RecipientCount(notificationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recipients[notificationID])
}
