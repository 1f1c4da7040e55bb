package id

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIDs(t *testing.T) {
	Convey("UUID", t, func() {
		v := New()
		So(IsValid(v), ShouldBeTrue)
		So(IsValid("not-a-uuid"), ShouldBeFalse)
	})

	Convey("退货单号", t, func() {
		for i := 0; i < 100; i++ {
			v := NewReturnID()
			So(IsReturnID(v), ShouldBeTrue)
			So(len(v), ShouldEqual, 9)
		}
		So(IsReturnID("RET-1234"), ShouldBeFalse)
		So(IsReturnID("RET-12a45"), ShouldBeFalse)
		So(IsReturnID("ABC-12345"), ShouldBeFalse)
	})
}
