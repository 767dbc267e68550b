package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"autoparts/internal/domain"
	"autoparts/internal/events"
	"autoparts/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[strings.ToLower(user.Email)]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[strings.ToLower(user.Email)] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[strings.ToLower(email)]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Role = role
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.nextID++
	product.ID = m.nextID
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	return len(m.products), nil
}

type mockCartRepository struct {
	lines  map[int64]*domain.CartLine
	nextID int64

	// clearErr fails DeleteBySession when set
	clearErr error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{lines: make(map[int64]*domain.CartLine)}
}

func (m *mockCartRepository) Create(ctx context.Context, line *domain.CartLine) error {
	m.nextID++
	line.ID = m.nextID
	m.lines[line.ID] = line
	return nil
}

func (m *mockCartRepository) FindByID(ctx context.Context, id int64) (*domain.CartLine, error) {
	line, ok := m.lines[id]
	if !ok {
		return nil, repository.ErrCartLineNotFound
	}
	return line, nil
}

func (m *mockCartRepository) FindLine(ctx context.Context, sessionID string, productID int64, saleType domain.SaleType) (*domain.CartLine, error) {
	for _, line := range m.lines {
		if line.SessionID == sessionID && line.ProductID == productID && line.SaleType == saleType {
			return line, nil
		}
	}
	return nil, repository.ErrCartLineNotFound
}

func (m *mockCartRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	out := []*domain.CartLine{}
	for _, line := range m.lines {
		if line.SessionID == sessionID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	line, ok := m.lines[id]
	if !ok {
		return repository.ErrCartLineNotFound
	}
	line.Quantity = quantity
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.lines[id]; !ok {
		return repository.ErrCartLineNotFound
	}
	delete(m.lines, id)
	return nil
}

func (m *mockCartRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	if m.clearErr != nil {
		return 0, m.clearErr
	}
	var removed int64
	for id, line := range m.lines {
		if line.SessionID == sessionID {
			delete(m.lines, id)
			removed++
		}
	}
	return removed, nil
}

type mockOrderRepository struct {
	orders map[string]*domain.Order
	nextID int64
	// taken holds tokens that collide on insert
	taken   map[string]bool
	inserts int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*domain.Order), taken: make(map[string]bool)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.inserts++
	if _, exists := m.orders[order.OrderID]; exists || m.taken[order.OrderID] {
		return repository.ErrOrderTokenTaken
	}
	m.nextID++
	order.ID = m.nextID
	stored := *order
	m.orders[order.OrderID] = &stored
	return nil
}

func (m *mockOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	for _, order := range m.orders {
		if order.ID == id {
			copied := *order
			return &copied, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, order := range m.orders {
		if filter.From != nil && order.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !order.CreatedAt.Before(*filter.To) {
			continue
		}
		copied := *order
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	stored, ok := m.orders[order.OrderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	stored.Notes = order.Notes
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (m *mockOrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{
		OrdersByStatus: map[domain.OrderStatus]int{},
		OrdersBySource: map[string]int{},
	}
	for _, order := range m.orders {
		stats.TotalOrders++
		stats.OrdersByStatus[order.Status]++
		stats.OrdersBySource[order.Source]++
		if order.PaymentStatus == domain.PaymentStatusPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(order.Total)
		}
	}
	return stats, nil
}

type mockSubscriberRepository struct {
	subscribers map[string]*domain.Subscriber
	nextID      int64
	err         error
}

func newMockSubscriberRepository() *mockSubscriberRepository {
	return &mockSubscriberRepository{subscribers: make(map[string]*domain.Subscriber)}
}

func (m *mockSubscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.subscribers[subscriber.Email]; exists {
		return repository.ErrSubscriberExists
	}
	m.nextID++
	subscriber.ID = m.nextID
	m.subscribers[subscriber.Email] = subscriber
	return nil
}

func (m *mockSubscriberRepository) List(ctx context.Context, ascending bool) ([]*domain.Subscriber, error) {
	out := make([]*domain.Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *mockSubscriberRepository) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, s := range m.subscribers {
		if s.Active {
			count++
		}
	}
	return count, nil
}

type mockChatbotRepository struct {
	responses []*domain.ChatbotResponse
	nextID    int64
}

func newMockChatbotRepository() *mockChatbotRepository {
	return &mockChatbotRepository{}
}

func (m *mockChatbotRepository) Create(ctx context.Context, response *domain.ChatbotResponse) error {
	m.nextID++
	response.ID = m.nextID
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockChatbotRepository) Update(ctx context.Context, response *domain.ChatbotResponse) error {
	for i, r := range m.responses {
		if r.ID == response.ID {
			m.responses[i] = response
			return nil
		}
	}
	return repository.ErrChatbotNotFound
}

func (m *mockChatbotRepository) Delete(ctx context.Context, id int64) error {
	for i, r := range m.responses {
		if r.ID == id {
			m.responses = append(m.responses[:i], m.responses[i+1:]...)
			return nil
		}
	}
	return repository.ErrChatbotNotFound
}

func (m *mockChatbotRepository) FindByID(ctx context.Context, id int64) (*domain.ChatbotResponse, error) {
	for _, r := range m.responses {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrChatbotNotFound
}

func (m *mockChatbotRepository) List(ctx context.Context, activeOnly bool) ([]*domain.ChatbotResponse, error) {
	out := []*domain.ChatbotResponse{}
	for _, r := range m.responses {
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockSettingsRepository struct {
	bank    domain.BankConfig
	company domain.CompanyConfig
}

func (m *mockSettingsRepository) GetBank(ctx context.Context) (*domain.BankConfig, error) {
	bank := m.bank
	return &bank, nil
}

func (m *mockSettingsRepository) SaveBank(ctx context.Context, cfg *domain.BankConfig) error {
	m.bank = *cfg
	return nil
}

func (m *mockSettingsRepository) GetCompany(ctx context.Context) (*domain.CompanyConfig, error) {
	company := m.company
	return &company, nil
}

func (m *mockSettingsRepository) SaveCompany(ctx context.Context, cfg *domain.CompanyConfig) error {
	m.company = *cfg
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubRenderer struct {
	kinds []domain.DocumentKind
}

func (r *stubRenderer) Render(kind domain.DocumentKind, order *domain.Order, company *domain.CompanyConfig, bank *domain.BankConfig) ([]byte, error) {
	r.kinds = append(r.kinds, kind)
	return []byte("%PDF-stub " + order.OrderID), nil
}

type countingObserver struct {
	cart    map[string]int
	matched map[bool]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{cart: map[string]int{}, matched: map[bool]int{}}
}

func (o *countingObserver) CartOperation(operation string) { o.cart[operation]++ }

func (o *countingObserver) ChatbotQuery(matched bool) { o.matched[matched]++ }
