package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/smartystreets/goconvey/convey"
)

func TestMember(t *testing.T) {
	convey.Convey("Given roster members", t, func() {
		a, err := model.NewMember("Hélène", "Dupré", "helene@example.com", true, false)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When comparing with different case and accents", func() {
			b := model.Member{FirstName: "HELENE", LastName: "dupre"}

			convey.Convey("Then they are the same person", func() {
				convey.So(a.Equal(b), convey.ShouldBeTrue)
				convey.So(a.Key(), convey.ShouldEqual, b.Key())
			})
		})

		convey.Convey("When matching record text", func() {
			convey.Convey("Then both names must appear as substrings", func() {
				convey.So(a.Matches(normalize.Fold("DUPRE Helene 0:45:00")), convey.ShouldBeTrue)
				convey.So(a.Matches(normalize.Fold("DUPRE Marc 0:45:00")), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the last name is empty", func() {
			_, err := model.NewMember("Jean", "  ", "", true, false)

			convey.Convey("Then creation fails", func() {
				convey.So(errors.Is(err, model.ErrInvalidMember), convey.ShouldBeTrue)
			})
		})
	})
}

func TestParticipant(t *testing.T) {
	convey.Convey("Given an unmatched winner line", t, func() {
		p := model.ExternalWinner("Kiprop Eliud 0:29:10")

		convey.Convey("Then a tagged placeholder is built", func() {
			convey.So(p.IsExternal(), convey.ShouldBeTrue)
			convey.So(p.Provenance.String(), convey.ShouldEqual, "external")
			convey.So(p.LastName, convey.ShouldEqual, "Kiprop")
			convey.So(p.FirstName, convey.ShouldEqual, "Eliud")
			convey.So(p.Email, convey.ShouldEqual, model.ExternalEmail)
		})

		convey.Convey("Then roster participants are not external", func() {
			r := model.RosterParticipant(model.Member{FirstName: "Anne", LastName: "Lambert"})
			convey.So(r.IsExternal(), convey.ShouldBeFalse)
			convey.So(r.FullName(), convey.ShouldEqual, "Anne Lambert")
		})
	})
}
