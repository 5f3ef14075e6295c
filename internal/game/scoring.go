package game

// Score rates a guess against the true angle. Accuracy is the shortest
// circular distance between the two, in [0, 180]. Points scale linearly from
// PointsMax at a perfect guess down to 0 at 180 degrees off.
//
// Both arguments must already be in [0, 359]; range checks happen upstream.
func Score(guess, angle int) (points, accuracy int) {
	diff := guess - angle
	if diff < 0 {
		diff = -diff
	}
	accuracy = diff
	if 360-diff < accuracy {
		accuracy = 360 - diff
	}

	if accuracy == 0 {
		return PointsMax, 0
	}
	points = PointsMax * (180 - accuracy) / 180
	if points < 0 {
		points = 0
	}
	return points, accuracy
}
