package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao-backend/shared/database/models"
	"gestao-backend/shared/permissions"
)

type messageFixture struct {
	env     *testEnv
	company models.Company
	ana     models.User
	bruno   models.User
}

func newMessageFixture(t *testing.T) *messageFixture {
	env := newTestEnv(t)
	company := env.createCompany(t, "Acme")
	ana := env.createUser(t, "Ana", "ana@example.com", models.GlobalRoleContratante)
	bruno := env.createUser(t, "Bruno", "bruno@example.com", models.GlobalRoleContratante)
	env.addMembership(t, ana, company, permissions.RoleMembro)
	env.addMembership(t, bruno, company, permissions.RoleMembro)
	return &messageFixture{env: env, company: company, ana: ana, bruno: bruno}
}

func (f *messageFixture) send(t *testing.T, from, to models.User, content string) models.Message {
	t.Helper()

	w := f.env.do(t, http.MethodPost, "/api/messages", f.env.token(t, from), gin.H{
		"receiver_id": to.ID,
		"company_id":  f.company.ID,
		"content":     content,
	})
	requireStatus(t, w, http.StatusCreated)

	var message models.Message
	decodeData(t, w, &message)
	return message
}

func (f *messageFixture) thread(t *testing.T, viewer, other models.User) []models.Message {
	t.Helper()

	w := f.env.do(t, http.MethodGet,
		fmt.Sprintf("/api/messages?company_id=%d&user1_id=%d&user2_id=%d",
			f.company.ID, viewer.ID, other.ID),
		f.env.token(t, viewer), nil)
	requireStatus(t, w, http.StatusOK)

	var messages []models.Message
	decodeData(t, w, &messages)
	return messages
}

func TestSendMessage(t *testing.T) {
	f := newMessageFixture(t)

	message := f.send(t, f.ana, f.bruno, "oi")
	assert.Equal(t, f.ana.ID, message.SenderID)
	assert.Equal(t, f.bruno.ID, message.ReceiverID)
	assert.False(t, message.IsRead)
}

func TestSendMessageToSelfRejected(t *testing.T) {
	f := newMessageFixture(t)

	w := f.env.do(t, http.MethodPost, "/api/messages", f.env.token(t, f.ana), gin.H{
		"receiver_id": f.ana.ID,
		"company_id":  f.company.ID,
		"content":     "monólogo",
	})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestSendMessageToNonMemberRejected(t *testing.T) {
	f := newMessageFixture(t)
	outsider := f.env.createUser(t, "Fora", "fora@example.com", models.GlobalRoleContratante)

	w := f.env.do(t, http.MethodPost, "/api/messages", f.env.token(t, f.ana), gin.H{
		"receiver_id": outsider.ID,
		"company_id":  f.company.ID,
		"content":     "oi",
	})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	f := newMessageFixture(t)
	outsider := f.env.createUser(t, "Fora", "fora@example.com", models.GlobalRoleContratante)

	w := f.env.do(t, http.MethodPost, "/api/messages", f.env.token(t, outsider), gin.H{
		"receiver_id": f.ana.ID,
		"company_id":  f.company.ID,
		"content":     "invasão",
	})
	requireStatus(t, w, http.StatusForbidden)
}

func TestThreadIsSymmetricAndChronological(t *testing.T) {
	f := newMessageFixture(t)

	f.send(t, f.ana, f.bruno, "primeira")
	f.send(t, f.bruno, f.ana, "segunda")
	f.send(t, f.ana, f.bruno, "terceira")

	anaView := f.thread(t, f.ana, f.bruno)
	brunoView := f.thread(t, f.bruno, f.ana)

	require.Len(t, anaView, 3)
	require.Equal(t, len(anaView), len(brunoView), "both participants see the same thread")
	for i := range anaView {
		assert.Equal(t, anaView[i].ID, brunoView[i].ID)
	}
	assert.Equal(t, "primeira", anaView[0].Content, "oldest first")
	assert.Equal(t, "terceira", anaView[2].Content)
}

func TestThreadScopedByCompany(t *testing.T) {
	f := newMessageFixture(t)
	otherCompany := f.env.createCompany(t, "Outra")
	f.env.addMembership(t, f.ana, otherCompany, permissions.RoleMembro)
	f.env.addMembership(t, f.bruno, otherCompany, permissions.RoleMembro)

	f.send(t, f.ana, f.bruno, "na acme")
	require.NoError(t, f.env.db.Create(&models.Message{
		SenderID: f.ana.ID, ReceiverID: f.bruno.ID,
		CompanyID: otherCompany.ID, Content: "na outra",
	}).Error)

	thread := f.thread(t, f.ana, f.bruno)
	require.Len(t, thread, 1, "same pair, different company, different thread")
	assert.Equal(t, "na acme", thread[0].Content)
}

func TestMarkReadOnlyFlagsIncomingMessages(t *testing.T) {
	f := newMessageFixture(t)

	incoming := f.send(t, f.bruno, f.ana, "para ana")
	outgoing := f.send(t, f.ana, f.bruno, "para bruno")

	w := f.env.do(t, http.MethodPut, "/api/messages/read", f.env.token(t, f.ana), gin.H{
		"sender_id":   f.bruno.ID,
		"receiver_id": f.ana.ID,
		"company_id":  f.company.ID,
	})
	requireStatus(t, w, http.StatusOK)

	var in, out models.Message
	require.NoError(t, f.env.db.First(&in, incoming.ID).Error)
	require.NoError(t, f.env.db.First(&out, outgoing.ID).Error)
	assert.True(t, in.IsRead, "bruno's message to ana is now read")
	assert.False(t, out.IsRead, "ana's own message keeps bruno's read state")
}

func TestMarkReadOnEmptyThreadSucceeds(t *testing.T) {
	f := newMessageFixture(t)

	w := f.env.do(t, http.MethodPut, "/api/messages/read", f.env.token(t, f.ana), gin.H{
		"sender_id":   f.bruno.ID,
		"receiver_id": f.ana.ID,
		"company_id":  f.company.ID,
	})
	requireStatus(t, w, http.StatusOK)
}

func TestMarkReadForSomeoneElseForbidden(t *testing.T) {
	f := newMessageFixture(t)
	f.send(t, f.ana, f.bruno, "para bruno")

	// Ana cannot acknowledge messages on Bruno's behalf.
	w := f.env.do(t, http.MethodPut, "/api/messages/read", f.env.token(t, f.ana), gin.H{
		"sender_id":   f.ana.ID,
		"receiver_id": f.bruno.ID,
		"company_id":  f.company.ID,
	})
	requireStatus(t, w, http.StatusForbidden)
}

func TestThreadOfOthersForbidden(t *testing.T) {
	f := newMessageFixture(t)
	carla := f.env.createUser(t, "Carla", "carla@example.com", models.GlobalRoleContratante)
	f.env.addMembership(t, carla, f.company, permissions.RoleMembro)
	f.send(t, f.ana, f.bruno, "privada")

	w := f.env.do(t, http.MethodGet,
		fmt.Sprintf("/api/messages?company_id=%d&user1_id=%d&user2_id=%d",
			f.company.ID, f.ana.ID, f.bruno.ID),
		f.env.token(t, carla), nil)
	requireStatus(t, w, http.StatusForbidden)
}
