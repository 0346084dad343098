package vm

import (
	"fmt"
	"io"
)

// Robot receives the system calls a program makes.
type Robot interface {
	Delay(ms int32)
	Reset()
	Wait()
	WaitJoint(id int32)
	MoveJoint(id int32, angle float32)
	SetJoint(id int32, angle float32)
	ReadJoint(id int32) float32
	MoveOrth(x, y, z, alpha float32)
	SetOrth(x, y, z, alpha float32)
	MoveJoints(angles [6]float32)
	SetJoints(angles [6]float32)
	GripperOpen()
	GripperClose()
	SetJointSpeed(id int32, speed float32)
	ShowInt(row, col, num, length int32)
	Print(v int32)
}

// Recorder is a Robot that remembers joint targets and logs every call.
// Print output goes to Out if it is set.
type Recorder struct {
	Out     io.Writer
	Log     []string
	Printed []int32
	Joints  [7]float32 // indexed by joint id 1..6
}

func (r *Recorder) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

func (r *Recorder) setJoint(id int32, angle float32) {
	if id >= 1 && id <= 6 {
		r.Joints[id] = angle
	}
}

func (r *Recorder) Delay(ms int32)     { r.logf("delay %d", ms) }
func (r *Recorder) Reset()             { r.logf("reset"); r.Joints = [7]float32{} }
func (r *Recorder) Wait()              { r.logf("wait") }
func (r *Recorder) WaitJoint(id int32) { r.logf("wait_joint %d", id) }
func (r *Recorder) GripperOpen()       { r.logf("gripper_open") }
func (r *Recorder) GripperClose()      { r.logf("gripper_close") }

func (r *Recorder) MoveJoint(id int32, angle float32) {
	r.logf("mov_joint %d %g", id, angle)
	r.setJoint(id, angle)
}

func (r *Recorder) SetJoint(id int32, angle float32) {
	r.logf("set_joint %d %g", id, angle)
	r.setJoint(id, angle)
}

func (r *Recorder) ReadJoint(id int32) float32 {
	r.logf("read_joint %d", id)
	if id >= 1 && id <= 6 {
		return r.Joints[id]
	}
	return 0
}

func (r *Recorder) MoveOrth(x, y, z, alpha float32) {
	r.logf("mov_orth_coord %g %g %g %g", x, y, z, alpha)
}

func (r *Recorder) SetOrth(x, y, z, alpha float32) {
	r.logf("set_orth_coord %g %g %g %g", x, y, z, alpha)
}

func (r *Recorder) MoveJoints(angles [6]float32) {
	r.logf("mov_joint_coord %g %g %g %g %g %g", angles[0], angles[1], angles[2], angles[3], angles[4], angles[5])
	for i, a := range angles {
		r.Joints[i+1] = a
	}
}

func (r *Recorder) SetJoints(angles [6]float32) {
	r.logf("set_joint_coord %g %g %g %g %g %g", angles[0], angles[1], angles[2], angles[3], angles[4], angles[5])
	for i, a := range angles {
		r.Joints[i+1] = a
	}
}

func (r *Recorder) SetJointSpeed(id int32, speed float32) {
	r.logf("set_joint_speed %d %g", id, speed)
}

func (r *Recorder) ShowInt(row, col, num, length int32) {
	r.logf("oled_show_int %d %d %d %d", row, col, num, length)
}

func (r *Recorder) Print(v int32) {
	r.logf("print %d", v)
	r.Printed = append(r.Printed, v)
	if r.Out != nil {
		fmt.Fprintln(r.Out, v)
	}
}
