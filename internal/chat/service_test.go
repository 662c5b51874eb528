package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomessenger/internal/dbmysql"
)

// fakeConvRepo enforces the same name-uniqueness the MySQL schema does, so
// the race-handling path in findOrCreate is exercised for real.
type fakeConvRepo struct {
	mu      sync.Mutex
	byID    map[string]*dbmysql.Conversation
	byName  map[string]*dbmysql.Conversation
	members map[string][]*dbmysql.Membership
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		byID:    make(map[string]*dbmysql.Conversation),
		byName:  make(map[string]*dbmysql.Conversation),
		members: make(map[string][]*dbmysql.Membership),
	}
}

func (r *fakeConvRepo) Create(ctx context.Context, conv *dbmysql.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[conv.Name]; exists {
		return fmt.Errorf("duplicate entry %q for key 'name'", conv.Name)
	}
	c := *conv
	r.byID[c.ID] = &c
	r.byName[c.Name] = &c
	return nil
}

func (r *fakeConvRepo) FindByID(ctx context.Context, id string) (*dbmysql.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (r *fakeConvRepo) FindByName(ctx context.Context, name string) (*dbmysql.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (r *fakeConvRepo) ListForUser(ctx context.Context, username string) ([]*dbmysql.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dbmysql.Conversation
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConvRepo) AddMember(ctx context.Context, m *dbmysql.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ConversationID] = append(r.members[m.ConversationID], m)
	return nil
}

func (r *fakeConvRepo) ListMembers(ctx context.Context, conversationID string) ([]*dbmysql.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[conversationID], nil
}

type fakeMsgRepo struct {
	mu       sync.Mutex
	messages []*dbmysql.Message
}

func (r *fakeMsgRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *msg
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, &m)
	return nil
}

func (r *fakeMsgRepo) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*dbmysql.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dbmysql.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeUsers struct {
	known map[string]bool
}

func (f *fakeUsers) Exists(ctx context.Context, username string) (bool, error) {
	return f.known[username], nil
}

func newTestService(known ...string) (Service, *fakeConvRepo, *fakeMsgRepo) {
	users := &fakeUsers{known: make(map[string]bool)}
	for _, u := range known {
		users.known[u] = true
	}
	convs := newFakeConvRepo()
	msgs := &fakeMsgRepo{}
	return NewService(convs, msgs, users), convs, msgs
}

func TestFindOrCreatePrivateCanonical(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.FindOrCreatePrivate(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, dbmysql.ConvPrivate, first.Type)
	assert.Equal(t, "alice|bob", first.Name)

	// Reversed argument order resolves to the same conversation.
	second, err := svc.FindOrCreatePrivate(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := svc.FindOrCreatePrivate(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestFindOrCreatePrivateConcurrent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	const iterations = 50
	ids := make(chan string, iterations*2)
	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			conv, err := svc.FindOrCreatePrivate(ctx, "alice", "bob")
			require.NoError(t, err)
			ids <- conv.ID
		}()
		go func() {
			defer wg.Done()
			conv, err := svc.FindOrCreatePrivate(ctx, "bob", "alice")
			require.NoError(t, err)
			ids <- conv.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1, "all concurrent calls must resolve to one conversation")
}

func TestFindOrCreatePrivateSelf(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.FindOrCreatePrivate(context.Background(), "alice", "alice")
	assert.Error(t, err)
}

func TestCreateGroup(t *testing.T) {
	svc, convs, _ := newTestService("bob", "carol")
	ctx := context.Background()

	conv, added, err := svc.CreateGroup(ctx, "weekend-plans", "alice", []string{"bob", "carol", "nobody", "bob"})
	require.NoError(t, err)
	assert.Equal(t, dbmysql.ConvGroup, conv.Type)

	// Unknown usernames are skipped, duplicates collapsed; creator is first.
	assert.Equal(t, []string{"alice", "bob", "carol"}, added)

	members, err := convs.ListMembers(ctx, conv.ID)
	require.NoError(t, err)
	roles := make(map[string]string)
	for _, m := range members {
		roles[m.Username] = m.Role
	}
	assert.Equal(t, dbmysql.RoleOwner, roles["alice"])
	assert.Equal(t, dbmysql.RoleMember, roles["bob"])
	assert.Equal(t, dbmysql.RoleMember, roles["carol"])
	assert.NotContains(t, roles, "nobody")
}

func TestCreateGroupRejectsBadNames(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.CreateGroup(ctx, "", "alice", nil)
	assert.Error(t, err)

	_, _, err = svc.CreateGroup(ctx, "has|pipe", "alice", nil)
	assert.Error(t, err)

	_, _, err = svc.CreateGroup(ctx, "plans", "alice", nil)
	require.NoError(t, err)
	_, _, err = svc.CreateGroup(ctx, "plans", "bob", nil)
	assert.Error(t, err, "duplicate group name")
}

func TestEnsureGlobalIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.EnsureGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbmysql.ConvGlobal, first.Type)

	second, err := svc.EnsureGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestHistoryOrdering(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	conv, err := svc.EnsureGlobal(ctx)
	require.NoError(t, err)

	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, svc.SaveMessage(ctx, &dbmysql.Message{
			ConversationID: conv.ID,
			Sender:         "alice",
			Content:        text,
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := svc.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "third", history[2].Content)
}
