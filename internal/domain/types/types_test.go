package types_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/gigrec/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestRecommendationJSON(t *testing.T) {
	convey.Convey("Given a recommendation without features", t, func() {
		rec := types.Recommendation{ID: "p1", Score: 0.5, Reason: "trending now"}

		convey.Convey("When encoding it", func() {
			b, err := json.Marshal(rec)

			convey.Convey("Then features and freelancer-only signals are omitted", func() {
				convey.So(err, convey.ShouldBeNil)
				s := string(b)
				convey.So(s, convey.ShouldContainSubstring, `"reason":"trending now"`)
				convey.So(s, convey.ShouldNotContainSubstring, "features")
				convey.So(s, convey.ShouldNotContainSubstring, "previous_hire")
			})
		})
	})
}
