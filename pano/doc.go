// Package pano converts between equirectangular panoramas and rectilinear
// (perspective) views, and between six cube faces and equirectangular
// panoramas.
//
// # Perspective views
//
// An Engine turns a View (field of view, yaw, pitch, roll, output size)
// into a perspective image of a panorama:
//
//	eng := pano.NewEngine(pano.DefaultConfig())
//	if err := eng.Configure(pano.View{FOV: 90, Yaw: 30, Width: 640, Height: 480}); err != nil {
//	    return err
//	}
//	flat, err := eng.Convert(panorama)
//
// For every output pixel the engine back-projects a pinhole ray, rotates it
// by the composed yaw/pitch/roll matrix, converts it to longitude and
// latitude, and samples the panorama there. The per-pixel coordinates are
// cached, so converting another frame with the same view only resamples.
//
// # Cube faces
//
// Synthesize and SynthesizeEquirectangular build a panorama from six cube
// faces; ExtractCubeFaces goes the other way.
//
// # Edge Handling
//
// Sampling wraps columns across the longitude seam of a panorama and clamps
// rows at the poles. Cube faces are clamped on both axes.
package pano
