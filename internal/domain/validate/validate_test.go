package validate_test

import (
	"testing"

	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func valid() model.Raw {
	return model.Raw{
		"id":               float64(42),
		"restaurant_name":  "Golden Spoon",
		"rating":           7.5,
		"distance_from_me": 250.0,
	}
}

func TestValid(t *testing.T) {
	Convey("Given a raw record satisfying every rule", t, func() {
		raw := valid()

		Convey("Then it is accepted", func() {
			So(validate.Valid(raw), ShouldBeTrue)
		})

		Convey("And Coerce produces the typed record", func() {
			rec, ok := validate.Coerce(raw)
			So(ok, ShouldBeTrue)
			So(rec.ID, ShouldEqual, 42)
			So(rec.Name, ShouldEqual, "Golden Spoon")
			So(rec.Rating, ShouldEqual, 7.5)
			So(rec.Distance, ShouldEqual, 250.0)
		})
	})

	Convey("Given id variations", t, func() {
		Convey("An integral number is accepted", func() {
			raw := valid()
			raw["id"] = float64(-3)
			So(validate.Valid(raw), ShouldBeTrue)
		})

		Convey("A number with a fractional part is rejected", func() {
			raw := valid()
			raw["id"] = 1.5
			So(validate.Valid(raw), ShouldBeFalse)
		})

		Convey("A string id is rejected", func() {
			raw := valid()
			raw["id"] = "42"
			So(validate.Valid(raw), ShouldBeFalse)
		})

		Convey("A missing id is rejected", func() {
			raw := valid()
			delete(raw, "id")
			So(validate.Valid(raw), ShouldBeFalse)
		})
	})

	Convey("Given name variations", t, func() {
		cases := []struct {
			name  string
			value any
			want  bool
		}{
			{"single letter", "A", true},
			{"letters and spaces", "The Daily Grind", true},
			{"digit inside", "A1", false},
			{"empty string", "", false},
			{"all whitespace", "   ", false},
			{"punctuation", "Joe's Diner", false},
			{"non-string", 12.0, false},
		}
		for _, tc := range cases {
			Convey("Name "+tc.name, func() {
				raw := valid()
				raw["restaurant_name"] = tc.value
				So(validate.Valid(raw), ShouldEqual, tc.want)
			})
		}
	})

	Convey("Given rating boundary values", t, func() {
		cases := []struct {
			rating float64
			want   bool
		}{
			{1.00, true},
			{10.00, true},
			{0.999999, false},
			{10.000001, false},
		}
		for _, tc := range cases {
			raw := valid()
			raw["rating"] = tc.rating
			So(validate.Valid(raw), ShouldEqual, tc.want)
		}

		Convey("A non-numeric rating is rejected", func() {
			raw := valid()
			raw["rating"] = "8.0"
			So(validate.Valid(raw), ShouldBeFalse)
		})
	})

	Convey("Given distance boundary values", t, func() {
		cases := []struct {
			distance float64
			want     bool
		}{
			{10.00, true},
			{1000.00, true},
			{9.999999, false},
			{1000.000001, false},
		}
		for _, tc := range cases {
			raw := valid()
			raw["distance_from_me"] = tc.distance
			So(validate.Valid(raw), ShouldEqual, tc.want)
		}
	})

	Convey("Given a nil record", t, func() {
		So(validate.Valid(nil), ShouldBeFalse)
	})

	Convey("Valid never panics on foreign types", t, func() {
		raw := model.Raw{
			"id":               []any{1},
			"restaurant_name":  map[string]any{},
			"rating":           nil,
			"distance_from_me": true,
		}
		So(func() { validate.Valid(raw) }, ShouldNotPanic)
		So(validate.Valid(raw), ShouldBeFalse)
	})
}
