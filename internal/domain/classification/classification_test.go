package classification_test

import (
	"testing"
	"time"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	anne  = model.RosterParticipant(model.Member{FirstName: "Anne", LastName: "Lambert", IsMember: true})
	jean  = model.RosterParticipant(model.Member{FirstName: "Jean", LastName: "Dupont", IsChallenger: true})
	huy   = model.RaceDistance{Number: 1, Name: "Huy", DistanceKm: 10}
	spa   = model.RaceDistance{Number: 2, Name: "Spa", DistanceKm: 12}
	fixed = classification.Result{Points: 100, RaceTime: 45 * time.Minute, Position: 3, Team: "ACL"}
)

func TestAddOrUpdateResult(t *testing.T) {
	Convey("Given an empty classification", t, func() {
		c := classification.New()

		Convey("When the same update is applied twice", func() {
			c.AddOrUpdateResult(anne, huy, fixed)
			c.AddOrUpdateResult(anne, huy, fixed)

			Convey("Then points stay at the max and bonus km doubles", func() {
				mc := c.GetClassification(anne.Member, "Huy")
				So(mc, ShouldNotBeNil)
				So(mc.Points, ShouldEqual, 100)
				So(mc.BonusKm, ShouldEqual, 20)
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a worse result follows a better one", func() {
			c.AddOrUpdateResult(anne, huy, fixed)
			c.AddOrUpdateResult(anne, huy, classification.Result{Points: 80, Position: 9, Team: "RCH"})

			Convey("Then points keep the max and other fields take the latest", func() {
				mc := c.GetClassification(anne.Member, "Huy")
				So(mc.Points, ShouldEqual, 100)
				So(mc.Position, ShouldEqual, 9)
				So(mc.Team, ShouldEqual, "RCH")
				So(mc.IsMember(), ShouldBeTrue)
			})
		})

		Convey("When the lookup uses different case and accents", func() {
			c.AddOrUpdateResult(anne, huy, fixed)

			Convey("Then the same entry is found", func() {
				So(c.GetClassification(model.Member{FirstName: "ANNE", LastName: "Lâmbert"}, "Huy"), ShouldNotBeNil)
				So(c.GetClassification(anne.Member, "Spa"), ShouldBeNil)
			})
		})

		Convey("When a returned entry is modified", func() {
			c.AddOrUpdateResult(anne, huy, fixed)
			c.GetClassification(anne.Member, "Huy").Points = 1

			Convey("Then the classification is unchanged", func() {
				So(c.GetClassification(anne.Member, "Huy").Points, ShouldEqual, 100)
			})
		})
	})
}

func TestOrderingAndTotals(t *testing.T) {
	Convey("Given results for two members over two races", t, func() {
		c := classification.New()
		c.AddOrUpdateResult(anne, huy, classification.Result{Points: 900})
		c.AddOrUpdateResult(jean, spa, classification.Result{Points: 1000})
		c.AddOrUpdateResult(anne, spa, classification.Result{Points: 950})
		c.AddOrUpdateResult(jean, huy, classification.Result{Points: 700})

		Convey("Then all classifications are ordered by last then first name", func() {
			all := c.GetAllClassifications()
			So(len(all), ShouldEqual, 4)
			So(all[0].Participant.LastName, ShouldEqual, "Dupont")
			So(all[0].Race.Name, ShouldEqual, "Huy")
			So(all[2].Participant.LastName, ShouldEqual, "Lambert")
		})

		Convey("Then totals sum per member and rank by points", func() {
			totals := c.Totals()
			So(len(totals), ShouldEqual, 2)
			So(totals[0].LastName, ShouldEqual, "Lambert")
			So(totals[0].Points, ShouldEqual, 1850)
			So(totals[0].BonusKm, ShouldEqual, 22)
			So(totals[0].Races, ShouldEqual, 2)
			So(totals[0].Rank, ShouldEqual, 1)
			So(totals[1].Points, ShouldEqual, 1700)
			So(totals[1].IsChallenger, ShouldBeTrue)
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given a season and a finished job", t, func() {
		season := classification.New()
		season.AddOrUpdateResult(anne, huy, classification.Result{Points: 900, Team: "old"})

		job := classification.New()
		job.AddOrUpdateResult(anne, huy, classification.Result{Points: 800, Team: "new"})
		job.AddOrUpdateResult(jean, huy, classification.Result{Points: 1000})

		Convey("When the job is merged", func() {
			season.Merge(job)
			season.Merge(nil)

			Convey("Then merge follows update semantics", func() {
				So(season.Len(), ShouldEqual, 2)
				mc := season.GetClassification(anne.Member, "Huy")
				So(mc.Points, ShouldEqual, 900)
				So(mc.BonusKm, ShouldEqual, 20)
				So(mc.Team, ShouldEqual, "new")
				So(season.GetClassification(jean.Member, "Huy").Points, ShouldEqual, 1000)
			})
		})
	})
}

func TestEntry(t *testing.T) {
	Convey("Given a classified member", t, func() {
		c := classification.New()
		mc := c.AddOrUpdateResult(anne, huy, classification.Result{Points: 857, RaceTime: 41*time.Minute + 2*time.Second, Position: 2})

		Convey("Then the entry carries the formatted times and flags", func() {
			e := mc.Entry()
			So(e.LastName, ShouldEqual, "Lambert")
			So(e.Race, ShouldEqual, "Huy")
			So(e.DistanceKm, ShouldEqual, 10)
			So(e.Points, ShouldEqual, 857)
			So(e.BonusKm, ShouldEqual, 10)
			So(e.RaceTime, ShouldEqual, "0:41:02")
			So(e.TimePerKm, ShouldBeEmpty)
			So(e.IsMember, ShouldBeTrue)
			So(e.External, ShouldBeFalse)
		})
	})
}
