package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
)

func newFriendshipEnv(t *testing.T) (*repository.Store, *recordingDispatcher, FollowingService, FriendshipService) {
	t.Helper()
	store := newTestStore(t)
	dispatcher := &recordingDispatcher{}
	following := NewFollowingService(store, dispatcher, nil)
	friendship := NewFriendshipService(store, following, dispatcher, nil)
	return store, dispatcher, following, friendship
}

func TestFriendshipAddSelf(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	alice := createUser(t, store, "alice")

	err := svc.FriendshipAction(context.Background(), alice.ID, alice.ID, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrFriendSelf)
}

func TestFriendshipAddUnknownTarget(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	alice := createUser(t, store, "alice")

	err := svc.FriendshipAction(context.Background(), alice.ID, 4040, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFriendshipAddSendsInvitation(t *testing.T) {
	store, dispatcher, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))

	inv, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, model.InvitationStatusSent, inv.Status)

	// 发起阶段不建关注边
	exists, err := store.Follows.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, []string{model.FanoutKindConnectionRequest},
		dispatcher.kinds(model.FanoutChannelNotification))
}

func TestFriendshipAddDuplicateInvitation(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	err := svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrInvitationExists)
}

func TestFriendshipConfirm(t *testing.T) {
	store, dispatcher, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	dispatcher.reset()

	// 对方回 ADD 即确认
	require.NoError(t, svc.FriendshipAction(ctx, bob.ID, alice.ID, FriendshipActionAdd))

	// 两行邀请均为 FRIENDS
	fwd, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, fwd)
	assert.Equal(t, model.InvitationStatusFriends, fwd.Status)
	rev, err := store.Invitations.FindPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, model.InvitationStatusFriends, rev.Status)

	// 双向关注边补齐并带好友标记
	f1, err := store.Follows.Find(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, f1)
	assert.True(t, f1.IsFriend)
	f2, err := store.Follows.Find(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, f2)
	assert.True(t, f2.IsFriend)

	aliceFollowers, aliceFollowings := totals(t, store, alice.ID)
	bobFollowers, bobFollowings := totals(t, store, bob.ID)
	assert.Equal(t, 1, aliceFollowers)
	assert.Equal(t, 1, aliceFollowings)
	assert.Equal(t, 1, bobFollowers)
	assert.Equal(t, 1, bobFollowings)

	assert.Equal(t,
		[]string{model.FanoutKindFriend, model.FanoutKindFriend},
		dispatcher.kinds(model.FanoutChannelSearch))
	assert.Equal(t,
		[]string{model.FanoutKindFriend, model.FanoutKindFriend},
		dispatcher.kinds(model.FanoutChannelPromote))
}

func TestFriendshipAddWhenAlreadyFriends(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, bob.ID, alice.ID, FriendshipActionAdd))

	err := svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	err = svc.FriendshipAction(ctx, bob.ID, alice.ID, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestFriendshipRejectIncoming(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, bob.ID, alice.ID, FriendshipActionReject))

	inv, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)

	// 拒绝后可重新发起
	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
}

func TestFriendshipRejectCancelsOwnInvitation(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionReject))

	inv, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestFriendshipRejectWithoutInvitation(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	err := svc.FriendshipAction(context.Background(), alice.ID, bob.ID, FriendshipActionReject)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestUnfriendKeepsFollowEdges(t *testing.T) {
	store, dispatcher, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, bob.ID, alice.ID, FriendshipActionAdd))
	dispatcher.reset()

	// 确认态下 REJECT 即解除好友
	require.NoError(t, svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionReject))

	inv, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)
	inv, err = store.Invitations.FindPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)

	// 关注边保留，仅摘掉好友标记，计数不动
	f1, err := store.Follows.Find(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, f1)
	assert.False(t, f1.IsFriend)
	f2, err := store.Follows.Find(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, f2)
	assert.False(t, f2.IsFriend)

	aliceFollowers, aliceFollowings := totals(t, store, alice.ID)
	assert.Equal(t, 1, aliceFollowers)
	assert.Equal(t, 1, aliceFollowings)

	assert.Equal(t,
		[]string{model.FanoutKindUnfriend, model.FanoutKindUnfriend},
		dispatcher.kinds(model.FanoutChannelSearch))
	assert.Equal(t,
		[]string{model.FanoutKindUnfriend, model.FanoutKindUnfriend},
		dispatcher.kinds(model.FanoutChannelPromote))
}

func TestFriendshipCorruptedPair(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, store.DB().Exec("DROP INDEX idx_invitation_pair").Error)
	require.NoError(t, store.Invitations.Create(ctx,
		repository.NewInvitation(alice.ID, bob.ID, model.InvitationStatusSent)))
	require.NoError(t, store.Invitations.Create(ctx,
		repository.NewInvitation(alice.ID, bob.ID, model.InvitationStatusFriends)))

	err := svc.FriendshipAction(ctx, alice.ID, bob.ID, FriendshipActionAdd)
	assert.ErrorIs(t, err, ErrCorruptedState)
}

func TestListFriendsPendingFirst(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	me := createUser(t, store, "me")
	friend := createUser(t, store, "friend")
	pending := createUser(t, store, "pending")

	// friend 已确认，pending 还在等待
	require.NoError(t, svc.FriendshipAction(ctx, friend.ID, me.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, me.ID, friend.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, pending.ID, me.ID, FriendshipActionAdd))

	page, err := svc.ListFriends(ctx, me.ID, repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.InvitationStatusSent, page.Items[0].Status)
	assert.Equal(t, "pending", page.Items[0].User.Username)
	assert.Equal(t, model.InvitationStatusFriends, page.Items[1].Status)
	assert.Equal(t, "friend", page.Items[1].User.Username)
}

func TestListAnothersFriendsConfirmedOnly(t *testing.T) {
	store, _, _, svc := newFriendshipEnv(t)
	ctx := context.Background()
	me := createUser(t, store, "me")
	friend := createUser(t, store, "friend")
	pending := createUser(t, store, "pending")

	require.NoError(t, svc.FriendshipAction(ctx, friend.ID, me.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, me.ID, friend.ID, FriendshipActionAdd))
	require.NoError(t, svc.FriendshipAction(ctx, pending.ID, me.ID, FriendshipActionAdd))

	page, err := svc.ListAnothersFriends(ctx, me.ID, repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "friend", page.Items[0].User.Username)
	assert.Equal(t, model.InvitationStatusFriends, page.Items[0].Status)
}

func TestDataGenFakeFriendship(t *testing.T) {
	store, _, following, _ := newFriendshipEnv(t)
	dispatcher := &recordingDispatcher{}
	gen := NewDataGenService(store, following, dispatcher)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	require.NoError(t, gen.CreateFakeFriendship(ctx, alice.ID, bob.ID))

	fwd, err := store.Invitations.FindPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, fwd)
	assert.Equal(t, model.InvitationStatusFriends, fwd.Status)

	f1, err := store.Follows.Find(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, f1)
	assert.True(t, f1.IsFriend)

	err = gen.CreateFakeFriendship(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDataGenFakeUsers(t *testing.T) {
	store, _, following, _ := newFriendshipEnv(t)
	gen := NewDataGenService(store, following, &recordingDispatcher{})

	users, err := gen.CreateFakeUsers(context.Background(), 5, "seed")
	require.NoError(t, err)
	require.Len(t, users, 5)
	for _, u := range users {
		assert.NotZero(t, u.ID)
		assert.NotEmpty(t, u.PasswordHash)
		assert.NotEqual(t, "secret", u.PasswordHash)
	}
}
