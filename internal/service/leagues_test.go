package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/fortuna/frisbee/internal/store"
)

func TestLeagueService(t *testing.T) {
	Convey("Given a league service", t, func() {
		ctx := context.Background()
		leagues := newMemLeagues()
		svc := NewLeagueService(leagues, zerolog.Nop())
		owner, friend := uuid.New(), uuid.New()

		league, err := svc.CreateLeague(ctx, CreateLeagueInput{
			OwnerID:     owner,
			DisplayName: "Owner",
			Name:        "  Hucks  ",
			Team:        "Sharks",
		})
		So(err, ShouldBeNil)

		Convey("Creating a league defaults to salary cap and adds the owner", func() {
			So(league.Name, ShouldEqual, "Hucks")
			So(league.LeagueType, ShouldEqual, store.LeagueTypeSalaryCap)
			So(league.JoinCode, ShouldHaveLength, joinCodeLength)

			members, err := svc.ListParticipants(ctx, owner, league.ID)
			So(err, ShouldBeNil)
			So(members, ShouldHaveLength, 1)
			So(members[0].DisplayName, ShouldEqual, "Owner")
		})

		Convey("Invalid names and types are rejected", func() {
			_, err := svc.CreateLeague(ctx, CreateLeagueInput{OwnerID: owner, Name: " "})
			So(errors.Is(err, ErrInvalidLeague), ShouldBeTrue)

			_, err = svc.CreateLeague(ctx, CreateLeagueInput{OwnerID: owner, Name: "x", LeagueType: "auction"})
			So(errors.Is(err, ErrInvalidLeague), ShouldBeTrue)
		})

		Convey("Join code collisions are retried", func() {
			leagues.collisions = joinCodeAttempts - 1
			_, err := svc.CreateLeague(ctx, CreateLeagueInput{OwnerID: owner, Name: "Again"})
			So(err, ShouldBeNil)
		})

		Convey("Creation gives up after repeated collisions", func() {
			leagues.collisions = joinCodeAttempts
			_, err := svc.CreateLeague(ctx, CreateLeagueInput{OwnerID: owner, Name: "Again"})
			So(err, ShouldNotBeNil)
			So(store.IsUniqueViolation(err, ""), ShouldBeTrue)
		})

		Convey("Joining by code is case-insensitive", func() {
			joined, err := svc.JoinLeague(ctx, friend, strings.ToLower(league.JoinCode), "Friend")
			So(err, ShouldBeNil)
			So(joined.ID, ShouldEqual, league.ID)

			Convey("Joining twice fails", func() {
				_, err := svc.JoinLeague(ctx, friend, league.JoinCode, "Friend")
				So(err, ShouldEqual, ErrAlreadyMember)
			})

			Convey("A member can leave but the owner cannot", func() {
				So(svc.LeaveLeague(ctx, owner, league.ID), ShouldEqual, ErrOwnerCannotLeave)
				So(svc.LeaveLeague(ctx, friend, league.ID), ShouldBeNil)

				_, err := svc.GetLeague(ctx, friend, league.ID)
				So(err, ShouldEqual, ErrNotMember)
			})
		})

		Convey("Unknown codes are not found", func() {
			_, err := svc.JoinLeague(ctx, friend, "ZZZZZZ", "")
			So(err, ShouldEqual, ErrLeagueNotFound)
		})

		Convey("Access is limited to members", func() {
			_, err := svc.GetLeague(ctx, friend, league.ID)
			So(err, ShouldEqual, ErrNotMember)

			_, err = svc.GetLeague(ctx, owner, uuid.New())
			So(err, ShouldEqual, ErrLeagueNotFound)
		})

		Convey("Listing returns only the user's leagues", func() {
			mine, err := svc.ListLeagues(ctx, owner)
			So(err, ShouldBeNil)
			So(mine, ShouldHaveLength, 1)

			theirs, err := svc.ListLeagues(ctx, friend)
			So(err, ShouldBeNil)
			So(theirs, ShouldBeEmpty)
		})
	})
}

func TestGenerateJoinCode(t *testing.T) {
	Convey("Join codes use the unambiguous alphabet", t, func() {
		for i := 0; i < 50; i++ {
			code, err := generateJoinCode()
			So(err, ShouldBeNil)
			So(code, ShouldHaveLength, joinCodeLength)
			for _, r := range code {
				So(strings.ContainsRune(joinCodeAlphabet, r), ShouldBeTrue)
			}
		}
	})
}
