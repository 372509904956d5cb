package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	return buf.Bytes()
}

func TestFitJPEG_DownscaleKeepsAspect(t *testing.T) {
	// 672x372 等比缩到 336x186 以内：两边同时贴满。
	src := image.NewRGBA(image.Rect(0, 0, 672, 372))
	out, err := FitJPEG(encodePNG(t, src), 336, 186)
	if err != nil {
		t.Fatalf("FitJPEG 失败：%v", err)
	}
	w, h, err := Size(out)
	if err != nil {
		t.Fatalf("读取输出尺寸失败：%v", err)
	}
	if w != 336 || h != 186 {
		t.Fatalf("尺寸不符合预期：got=%dx%d want=336x186", w, h)
	}
}

func TestFitJPEG_TallImageBoundedByHeight(t *testing.T) {
	// 竖图：高度贴满 186，宽度按比例缩小。
	src := image.NewRGBA(image.Rect(0, 0, 200, 800))
	out, err := FitJPEG(encodePNG(t, src), 336, 186)
	if err != nil {
		t.Fatalf("FitJPEG 失败：%v", err)
	}
	w, h, err := Size(out)
	if err != nil {
		t.Fatalf("读取输出尺寸失败：%v", err)
	}
	if h != 186 {
		t.Fatalf("高度应贴满 186：got=%d", h)
	}
	if w > 336 || w <= 0 {
		t.Fatalf("宽度超出边界：got=%d", w)
	}
}

func TestFitJPEG_SmallImageUpscaled(t *testing.T) {
	// 小图按比例放大：至少一边贴满目标盒。
	src := image.NewRGBA(image.Rect(0, 0, 100, 55))
	out, err := FitJPEG(encodePNG(t, src), 336, 186)
	if err != nil {
		t.Fatalf("FitJPEG 失败：%v", err)
	}
	w, h, err := Size(out)
	if err != nil {
		t.Fatalf("读取输出尺寸失败：%v", err)
	}
	if w != 336 {
		t.Fatalf("宽度应贴满 336：got=%d", w)
	}
	if h > 186 || h < 180 {
		t.Fatalf("高度超出预期范围：got=%d", h)
	}
}

func TestFitJPEG_TransparentPNGFlattensToWhite(t *testing.T) {
	// 全透明 PNG：输出应为白底（convert RGB 的旧行为）。
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	out, err := FitJPEG(encodePNG(t, src), 50, 50)
	if err != nil {
		t.Fatalf("FitJPEG 失败：%v", err)
	}
	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode jpeg 失败：%v", err)
	}
	gb := got.Bounds()
	c := color.RGBAModel.Convert(got.At(gb.Min.X+gb.Dx()/2, gb.Min.Y+gb.Dy()/2)).(color.RGBA)
	if c.R < 240 || c.G < 240 || c.B < 240 {
		t.Fatalf("透明区域未铺白底：中心像素=%v", c)
	}
}

func TestFitJPEG_BadInput(t *testing.T) {
	if _, err := FitJPEG(nil, 100, 100); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
	if _, err := FitJPEG([]byte("not an image"), 100, 100); err == nil {
		t.Fatalf("期望非图片字节返回错误")
	}
	if _, err := FitJPEG(encodePNG(t, image.NewRGBA(image.Rect(0, 0, 1, 1))), 0, 100); err == nil {
		t.Fatalf("期望非法目标尺寸返回错误")
	}
}
