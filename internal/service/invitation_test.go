package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/service"
	"github.com/Falcon-J/saathi/internal/store"
)

var _ = Describe("InvitationService", func() {
	var (
		ctx     context.Context
		stores  *store.Stores
		pub     *mockPublisher
		svc     service.InvitationService
		owner   *model.Session
		invitee *model.Session
		ws      *model.Workspace
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = store.NewStores(store.NewMemoryKV())
		pub = &mockPublisher{}
		svc = service.NewInvitationService(stores.Invitations(), stores.Workspaces(), pub)
		owner = session("owner@example.com", "Owner")
		invitee = session("bob@example.com", "Bob")

		var err error
		ws, err = service.NewWorkspaceService(stores.Workspaces(), stores.Users(), stores.Tasks(), pub).
			Create(ctx, owner, "Launch")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Send", func() {
		It("should create a pending invitation that expires in 7 days", func() {
			inv, err := svc.Send(ctx, ws.ID, owner, "  BOB@example.com ")

			Expect(err).NotTo(HaveOccurred())
			Expect(inv.InviteeEmail).To(Equal("bob@example.com"))
			Expect(inv.WorkspaceName).To(Equal("Launch"))
			Expect(inv.Status).To(Equal(model.InvitationStatusPending))
			Expect(inv.ExpiresAt).To(BeTemporally("~", time.Now().Add(7*24*time.Hour), time.Minute))

			list, err := svc.ListForUser(ctx, "bob@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(inv.ID))
		})

		It("should reject self-invitations", func() {
			_, err := svc.Send(ctx, ws.ID, owner, owner.Email)
			Expect(err).To(MatchError(service.ErrCannotInviteSelf))
		})

		It("should only let the owner invite", func() {
			_, err := svc.Send(ctx, ws.ID, invitee, "carol@example.com")
			Expect(err).To(MatchError(service.ErrNotOwner))
		})

		It("should reject a duplicate pending invitation", func() {
			_, err := svc.Send(ctx, ws.ID, owner, "bob@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Send(ctx, ws.ID, owner, "bob@example.com")
			Expect(err).To(MatchError(service.ErrInvitePendingExists))
		})

		It("should reject invalid emails", func() {
			_, err := svc.Send(ctx, ws.ID, owner, "bob")
			Expect(err).To(MatchError(service.ErrInvalidInput))
		})
	})

	Describe("Accept", func() {
		var inv *model.Invitation

		BeforeEach(func() {
			var err error
			inv, err = svc.Send(ctx, ws.ID, owner, invitee.Email)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should join the workspace and publish user-joined", func() {
			joined, err := svc.Accept(ctx, inv.ID, invitee)

			Expect(err).NotTo(HaveOccurred())
			Expect(joined.HasMember(invitee.Email)).To(BeTrue())
			Expect(pub.Types()).To(Equal([]model.EventType{model.EventTypeUserJoined}))
			Expect(pub.Events()[0].UserID).To(Equal(invitee.Email))

			list, err := svc.ListForUser(ctx, invitee.Email)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			stored, err := stores.Invitations().GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.InvitationStatusAccepted))
		})

		It("should refuse another user's invitation", func() {
			_, err := svc.Accept(ctx, inv.ID, session("carol@example.com", "Carol"))
			Expect(err).To(MatchError(service.ErrEmailMismatch))
		})

		It("should refuse an invitation that was already used", func() {
			_, err := svc.Accept(ctx, inv.ID, invitee)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Accept(ctx, inv.ID, invitee)
			Expect(err).To(MatchError(service.ErrInviteNotPending))
		})

		It("should refuse an expired invitation", func() {
			inv.ExpiresAt = time.Now().Add(-time.Hour)
			Expect(stores.Invitations().Save(ctx, inv)).To(Succeed())

			_, err := svc.Accept(ctx, inv.ID, invitee)
			Expect(err).To(MatchError(service.ErrInviteExpired))
		})

		It("should report a deleted workspace", func() {
			Expect(stores.Workspaces().Delete(ctx, ws.ID)).To(Succeed())

			_, err := svc.Accept(ctx, inv.ID, invitee)
			Expect(err).To(MatchError(service.ErrWorkspaceNotFound))
		})

		It("should report unknown invitations", func() {
			_, err := svc.Accept(ctx, "missing", invitee)
			Expect(err).To(MatchError(service.ErrInviteNotFound))
		})
	})

	Describe("Decline", func() {
		It("should mark the invitation declined without publishing", func() {
			inv, err := svc.Send(ctx, ws.ID, owner, invitee.Email)
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Decline(ctx, inv.ID, invitee.Email)).To(Succeed())

			list, err := svc.ListForUser(ctx, invitee.Email)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
			Expect(pub.Events()).To(BeEmpty())
		})
	})
})
