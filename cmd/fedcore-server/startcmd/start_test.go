/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedcore/federation/pkg/kv"
)

func TestGetStartCmd_MissingHostURL(t *testing.T) {
	cmd := GetStartCmd()
	cmd.SetArgs(nil)

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), hostURLFlagName)
}

func TestFollowersActorID(t *testing.T) {
	id, ok := followersActorID("https://example.com/actors/alice/followers")
	require.True(t, ok)
	require.Equal(t, "alice", id)

	_, ok = followersActorID("https://example.com/actors/alice")
	require.False(t, ok)
}

func TestNewFollowersResolver(t *testing.T) {
	actors := kv.NewMemStore(0)
	require.NoError(t, actors.Set(context.Background(), []string{followersNamespace, "alice"},
		[]string{"https://follower.example.com/inbox"}, 0))

	resolve := newFollowersResolver(actors)

	activity := []byte(`{"to":["https://example.com/actors/alice/followers","https://www.w3.org/ns/activitystreams#Public"]}`)

	recipients, err := resolve(context.Background(), activity)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	require.Equal(t, "https://follower.example.com/inbox", recipients[0].String())
}

func TestNewFollowersResolver_DirectRecipient(t *testing.T) {
	actors := kv.NewMemStore(0)
	resolve := newFollowersResolver(actors)

	activity := []byte(`{"to":["https://example.com/actors/bob/inbox"]}`)

	recipients, err := resolve(context.Background(), activity)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	require.Equal(t, "https://example.com/actors/bob/inbox", recipients[0].String())
}
