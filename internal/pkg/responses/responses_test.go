package responses

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
)

func TestRender(t *testing.T) {
	Convey("Render 渲染模板", t, func() {
		Convey("使用传入的变量", func() {
			out, err := Render(intent.OrderStatus, language.English, map[string]string{
				VarStatus: "shipped",
				VarDate:   "2024-01-05",
			})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "Your order is currently shipped. Expected delivery: 2024-01-05.")
		})

		Convey("缺失变量使用英文默认值", func() {
			out, err := Render(intent.OrderStatus, language.English, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "Your order is currently being processed. Expected delivery: soon.")
		})

		Convey("空白变量视为缺失", func() {
			out, err := Render(intent.Policy, language.English, map[string]string{VarPolicyType: "  "})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "Here is our general policy.")
		})

		Convey("缺失变量使用马拉雅拉姆文默认值", func() {
			out, err := Render(intent.OrderStatus, language.Malayalam, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "നിങ്ങളുടെ ഓർഡർ നിലവിൽ പ്രോസസ്സ് ചെയ്യുന്നു ആണ്.")

			out, err = Render(intent.Policy, language.Malayalam, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "പൊതുവായ നയം ഇതാണ്.")
		})

		Convey("无占位符模板原样返回", func() {
			out, err := Render(intent.ReturnRefund, language.English, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "You can request a return within 7 days of delivery.")

			out, err = Render(intent.Escalation, language.Malayalam, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "നിങ്ങളെ കസ്റ്റമർ കെയറുമായി ബന്ധിപ്പിക്കുന്നു.")
		})

		Convey("mixed 和未知语言按 en 渲染", func() {
			out, err := Render(intent.General, language.Mixed, nil)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "How can I help you today?")
		})

		Convey("变量值里的花括号不会被当成占位符", func() {
			out, err := Render(intent.Policy, language.English, map[string]string{VarPolicyType: "{odd}"})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "Here is our {odd} policy.")
		})

		Convey("模板占位符无值时返回错误", func() {
			orig := templates[intent.Policy][language.English]
			templates[intent.Policy][language.English] = "Policy {unknown_var}."
			defer func() { templates[intent.Policy][language.English] = orig }()

			out, err := Render(intent.Policy, language.English, nil)
			So(out, ShouldBeEmpty)
			So(errors.Is(err, ErrUnresolvedPlaceholder), ShouldBeTrue)
		})
	})
}

func TestFallback(t *testing.T) {
	Convey("Fallback 返回不含占位符的 general 模板", t, func() {
		So(Fallback(language.English), ShouldEqual, "How can I help you today?")
		So(Fallback(language.Malayalam), ShouldEqual, "എനിക്ക് നിങ്ങളെ എങ്ങനെ സഹായിക്കാം?")
		So(Fallback(language.Mixed), ShouldEqual, "How can I help you today?")
		So(placeholderRe.MatchString(Fallback(language.English)), ShouldBeFalse)
		So(placeholderRe.MatchString(Fallback(language.Malayalam)), ShouldBeFalse)
	})
}

func TestDefaults(t *testing.T) {
	Convey("Defaults 返回副本", t, func() {
		d := Defaults(language.English)
		d[VarStatus] = "changed"
		So(Defaults(language.English)[VarStatus], ShouldEqual, "being processed")
	})
}
