package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/disintegration/imaging"

	// 输入不一定总是 jpeg：注册常见格式的解码器。
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 80

// FitJPEG 把原始图片字节解码后等比缩放到 maxWidth×maxHeight 以内，
// 并编码为 JPEG（quality=80）。
//
// 约束：
// - 解码尊重 EXIF 方向（手机拍摄图常见）
// - 等比缩放：至少有一边贴满目标尺寸，另一边不超过
// - JPEG 无 alpha：透明像素铺白底
func FitJPEG(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("图片数据为空")
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("目标尺寸无效：%dx%d", maxWidth, maxHeight)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	// Fit 只缩不放；小图同样按比例放大到贴满目标盒（单元格布局依赖统一尺寸）。
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	if b.Dx() < maxWidth && b.Dy() < maxHeight {
		scaleW := float64(maxWidth) / float64(b.Dx())
		scaleH := float64(maxHeight) / float64(b.Dy())
		scale := scaleW
		if scaleH < scale {
			scale = scaleH
		}
		fitted = imaging.Resize(img,
			int(float64(b.Dx())*scale+0.5), int(float64(b.Dy())*scale+0.5), imaging.Lanczos)
	}

	fb := fitted.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), fitted, fb.Min, draw.Over)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Size 返回 JPEG/PNG 等已注册格式图片的像素尺寸（只读头部）。
func Size(data []byte) (w, h int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
