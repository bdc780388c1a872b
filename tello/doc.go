/*Package tello drives a Ryze Tello® drone on behalf of a mission.Sequencer.

Disclaimer

Tello is a registered trademark of Ryze Tech.  The author(s) of this package is/are in no way affiliated with Ryze, DJI, or Intel.
The protocol details come from the generous contributors at https://tellopilots.com and from examining data packets
sent to/from the Tello.

Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

  * Control connection with keep-alive, flight status decoding and CRC-checked packets
  * Drone built-in flight commands: TakeOff(), Land(), SetHeightLimit()
  * Stick-based flight control: UpdateSticks(), Hover()
  * A Vehicle adapter which lets a mission.Sequencer fly the drone

Concepts

Connection

The drone listens for a 'control' connection which carries all commands to and from the drone, including flight
status.  Once connected, a Goroutine keeps the link alive by sending the current stick positions every 50ms;
if these stop the drone will hover and eventually land.

Modes and Arming

The Tello has no flight modes and no separate arming step.  The Vehicle adapter maps the mission's 'guided'
mode onto "connected and accepting stick commands" and 'land' onto the built-in Land command.
Arm() succeeds once flight data is arriving and the battery is not critically low.

Heights

The Tello reports its height in decimetres above the takeoff point; Vehicle.Altitude() converts this to metres.
*/
package tello
